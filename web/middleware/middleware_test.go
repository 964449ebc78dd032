package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[int]*model.User

func (f fakeUsers) GetUser(id int) (*model.User, error) { return f[id], nil }

type fakePosts map[int]*model.Post

func (f fakePosts) Get(id int) (*model.Post, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, service.ErrPostNotFound
}

func statusOnly(c *gin.Context, status int) {
	c.String(status, http.StatusText(status))
}

// newEngine signs the request in as the user named by the "as" query parameter.
func newEngine(users fakeUsers, middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(sessions.Sessions(session.CookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	engine.Use(func(c *gin.Context) {
		if as := c.Query("as"); as != "" {
			for _, u := range users {
				if u.Name == as {
					session.SetLoginUser(c, u)
					_ = session.Save(c)
				}
			}
		}
		c.Next()
	})
	engine.Use(CurrentUser(users))
	engine.Use(middlewares...)
	return engine
}

func get(engine *gin.Engine, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAuthorOnly(t *testing.T) {
	users := fakeUsers{1: {Id: 1, Name: "author"}, 2: {Id: 2, Name: "reader"}}
	posts := fakePosts{10: {Id: 10, AuthorId: 1}}

	engine := newEngine(users)
	engine.GET("/edit-post/:id", AuthorOnly(posts, statusOnly), func(c *gin.Context) {
		c.String(http.StatusOK, "editing %d", GetPost(c).Id)
	})

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"author", "/edit-post/10?as=author", http.StatusOK},
		{"other user", "/edit-post/10?as=reader", http.StatusForbidden},
		{"anonymous", "/edit-post/10", http.StatusForbidden},
		{"missing post", "/edit-post/11?as=author", http.StatusNotFound},
		{"bad id", "/edit-post/abc?as=author", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(engine, tc.target)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "editing 10", rec.Body.String())
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	users := fakeUsers{1: {Id: 1, Name: "author"}}
	engine := newEngine(users)
	engine.GET("/new-post", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, "hello %s", GetCurrentUser(c).Name)
	})

	rec := get(engine, "/new-post")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = get(engine, "/new-post?as=author")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello author", rec.Body.String())
}

func TestCurrentUserStaleSession(t *testing.T) {
	users := fakeUsers{1: {Id: 1, Name: "ghost"}}
	engine := newEngine(users)
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "%v", IsAuthenticated(c))
	})

	rec := get(engine, "/?as=ghost")
	require.Equal(t, "true", rec.Body.String())
	cookies := rec.Result().Cookies()

	delete(users, 1)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "false", rec.Body.String())
}

func TestCSRF(t *testing.T) {
	engine := newEngine(fakeUsers{}, CSRF(statusOnly))
	engine.GET("/form", func(c *gin.Context) {
		token := session.CSRFToken(c)
		_ = session.Save(c)
		c.String(http.StatusOK, token)
	})
	engine.POST("/form", func(c *gin.Context) {
		c.String(http.StatusOK, "accepted")
	})

	rec := get(engine, "/form")
	token := rec.Body.String()
	cookies := rec.Result().Cookies()

	post := func(form url.Values, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post(url.Values{CSRFFormField: {token}}, ""))
	assert.Equal(t, http.StatusOK, post(url.Values{}, token))
	assert.Equal(t, http.StatusForbidden, post(url.Values{CSRFFormField: {"forged"}}, ""))
	assert.Equal(t, http.StatusForbidden, post(url.Values{}, ""))

	cookies = nil
	assert.Equal(t, http.StatusForbidden, post(url.Values{CSRFFormField: {token}}, ""), "no session, no token")
}

type hitCounter struct{ hits int }

func (h *hitCounter) RecordRateLimitHit() { h.hits++ }

func TestRateLimiter(t *testing.T) {
	counter := &hitCounter{}
	cfg := DefaultRateLimitConfig(2)
	rl := NewRateLimiter(cfg, counter, statusOnly)
	defer rl.Stop()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(rl.Middleware())
	engine.POST("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.GET("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		engine.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send(http.MethodPost).Code)
	assert.Equal(t, http.StatusNoContent, send(http.MethodPost).Code)
	limited := send(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))
	assert.Equal(t, 1, counter.hits)

	// reads are never limited
	assert.Equal(t, http.StatusNoContent, send(http.MethodGet).Code)

	assert.Equal(t, 1, rl.Len())
	rl.cleanup(time.Now().Add(time.Hour))
	assert.Equal(t, 0, rl.Len())
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), SecurityHeaders())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := get(engine, "/")
	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

type observed struct {
	route  string
	status int
}

type fakeObserver struct{ seen []observed }

func (f *fakeObserver) ObserveRequest(_, route string, status int, _ time.Duration) {
	f.seen = append(f.seen, observed{route, status})
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	obs := &fakeObserver{}
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestLogger(obs), Recovery(statusOnly))
	engine.GET("/post/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	assert.Equal(t, http.StatusOK, get(engine, "/post/3").Code)
	assert.Equal(t, http.StatusInternalServerError, get(engine, "/boom").Code)
	assert.Equal(t, http.StatusNotFound, get(engine, "/nowhere").Code)

	assert.Equal(t, []observed{
		{"/post/:id", http.StatusOK},
		{"/boom", http.StatusInternalServerError},
		{"", http.StatusNotFound},
	}, obs.seen)
}
