package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/util/crypto"
	"github.com/inkpost/blog/web/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	crypto.Iterations = 1000
	os.Exit(m.Run())
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.ContactMessage
	err  error
}

func (f *fakeSender) Channel() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, msg mail.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestServer(t *testing.T, sender mail.Sender) *httptest.Server {
	t.Helper()
	t.Setenv("BLOG_RATE_LIMIT", "1000")
	t.Setenv("BLOG_SESSION_SECRET", "test-secret-test-secret-test-sec")

	db, err := database.Open(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "posts.db")},
	})
	require.NoError(t, err)

	s := NewServer(db)
	s.SetMailer(sender)
	engine, err := s.initRouter()
	require.NoError(t, err)

	ts := httptest.NewServer(engine)
	t.Cleanup(func() {
		ts.Close()
		_ = s.Stop()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return ts
}

type browser struct {
	t    *testing.T
	base string
	c    *http.Client
}

var csrfRe = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: ts.URL,
		c: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.c.Get(b.base + path)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

// token loads page and returns the form token rendered on it.
func (b *browser) token(page string) string {
	b.t.Helper()
	_, body := b.get(page)
	m := csrfRe.FindStringSubmatch(body)
	require.NotNil(b.t, m, "no csrf token on %s", page)
	return m[1]
}

// submit loads page to pick up the form token, then posts values to action.
func (b *browser) submit(page, action string, values url.Values) (*http.Response, string) {
	b.t.Helper()
	form := url.Values{"csrf_token": {b.token(page)}}
	for k, v := range values {
		form[k] = v
	}
	resp, err := b.c.PostForm(b.base+action, form)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(out)
}

func (b *browser) register(email, password, name string) *http.Response {
	resp, _ := b.submit("/register", "/register", url.Values{
		"email": {email}, "password": {password}, "name": {name},
	})
	return resp
}

func (b *browser) login(email, password string) *http.Response {
	resp, _ := b.submit("/login", "/login", url.Values{
		"email": {email}, "password": {password},
	})
	return resp
}

func (b *browser) newPost(title string) *http.Response {
	return b.newPostWith(title, "A subtitle")
}

func (b *browser) newPostWith(title, subtitle string) *http.Response {
	resp, _ := b.submit("/new-post", "/new-post", url.Values{
		"title":    {title},
		"subtitle": {subtitle},
		"img_url":  {"https://example.com/cover.jpg"},
		"body":     {"<p>Hello there</p><script>alert(1)</script>"},
	})
	return resp
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestRegisterLogsInAndDuplicateIsRejected(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	alice := newBrowser(t, ts)

	resp := alice.register("alice@example.com", "secret", "Alice")
	assertRedirect(t, resp, "/")
	setCookies := resp.Header.Values("Set-Cookie")
	require.Len(t, setCookies, 1, "login must write the session cookie once")
	assert.Contains(t, setCookies[0], "inkpost=")
	assert.Contains(t, setCookies[0], "SameSite=Lax")
	assert.Contains(t, setCookies[0], "HttpOnly")

	_, home := alice.get("/")
	assert.Contains(t, home, `href="/new-post"`)
	assert.Contains(t, home, `href="/logout"`)

	other := newBrowser(t, ts)
	assertRedirect(t, other.register("alice@example.com", "another", "Impostor"), "/login")
	_, page := other.get("/login")
	assert.Contains(t, page, "already signed up with that email")

	_, home = other.get("/")
	assert.NotContains(t, home, `href="/new-post"`)
}

func TestLoginFailuresFlashAndRedirect(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	newBrowser(t, ts).register("bob@example.com", "hunter2", "Bob")

	b := newBrowser(t, ts)
	assertRedirect(t, b.login("nobody@example.com", "x"), "/register")
	_, page := b.get("/register")
	assert.Contains(t, page, "That email does not exist, please register first.")

	assertRedirect(t, b.login("bob@example.com", "wrong"), "/login")
	_, page = b.get("/login")
	assert.Contains(t, page, "Password incorrect, please try again.")

	assertRedirect(t, b.login("bob@example.com", "hunter2"), "/")
	_, home := b.get("/")
	assert.Contains(t, home, `href="/new-post"`)
}

func TestLogoutEndsSession(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)
	b.register("carol@example.com", "pw", "Carol")

	resp, _ := b.get("/logout")
	assertRedirect(t, resp, "/")

	resp, _ = b.get("/new-post")
	assertRedirect(t, resp, "/login")
}

func TestPostLifecycleAndAuthorGuard(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})

	author := newBrowser(t, ts)
	author.register("dana@example.com", "pw", "Dana")
	assertRedirect(t, author.newPost("First post"), "/")

	_, home := newBrowser(t, ts).get("/")
	assert.Contains(t, home, "First post")
	assert.Contains(t, home, "Dana")

	resp, page := author.get("/post/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Hello there")
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, `href="/edit-post/1"`)

	stranger := newBrowser(t, ts)
	stranger.register("eve@example.com", "pw", "Eve")
	_, page = stranger.get("/post/1")
	assert.NotContains(t, page, `href="/edit-post/1"`)

	resp, _ = stranger.get("/edit-post/1")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = stranger.get("/delete/1")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	anon := newBrowser(t, ts)
	resp, _ = anon.get("/edit-post/1")
	assertRedirect(t, resp, "/login")

	resp, _ = author.submit("/edit-post/1", "/edit-post/1", url.Values{
		"title":    {"Edited post"},
		"subtitle": {"New subtitle"},
		"img_url":  {"https://example.com/other.jpg"},
		"body":     {"<p>Changed</p>"},
	})
	assertRedirect(t, resp, "/post/1")
	_, page = author.get("/post/1")
	assert.Contains(t, page, "Edited post")
	assert.Contains(t, page, "Changed")

	resp, _ = author.get("/delete/1")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "delete without a form token")
	resp, _ = author.get("/post/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, page = author.get("/post/1")
	assert.Regexp(t, `href="/delete/1\?csrf_token=[^"]+"`, page)
	resp, _ = author.get("/delete/1?csrf_token=" + url.QueryEscape(author.token("/post/1")))
	assertRedirect(t, resp, "/")
	resp, _ = author.get("/post/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBlankInputIsRejected(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)

	resp := b.register("kim@example.com", "pw", "   ")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = b.register("kim@example.com", "pw", "Kim")
	assertRedirect(t, resp, "/")

	resp = b.newPostWith("   ", "   ")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	_, home := b.get("/")
	assert.NotContains(t, home, `href="/post/1"`)

	assertRedirect(t, b.newPost("Real post"), "/")
	resp, page := b.submit("/post/1", "/post/1", url.Values{"comment": {"   "}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, page, "This field is required.")
	_, page = b.get("/post/1")
	assert.NotContains(t, page, `<div class="comment-text">`)
}

func TestDuplicateTitleIsRejected(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)
	b.register("fay@example.com", "pw", "Fay")

	assertRedirect(t, b.newPost("Same title"), "/")
	resp := b.newPost("Same title")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCommentsRequireLogin(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	author := newBrowser(t, ts)
	author.register("gus@example.com", "pw", "Gus")
	author.newPost("Commented post")

	anon := newBrowser(t, ts)
	resp, _ := anon.submit("/post/1", "/post/1", url.Values{"comment": {"drive-by"}})
	assertRedirect(t, resp, "/login")
	_, page := anon.get("/login")
	assert.Contains(t, page, "You need to login or register to comment.")

	reader := newBrowser(t, ts)
	reader.register("hal@example.com", "pw", "Hal")
	resp, _ = reader.submit("/post/1", "/post/1", url.Values{"comment": {"Nice write-up"}})
	assertRedirect(t, resp, "/post/1")

	_, page = author.get("/post/1")
	assert.Contains(t, page, "Nice write-up")
	assert.Contains(t, page, "https://www.gravatar.com/avatar/")
	assert.NotContains(t, page, "drive-by")
}

func TestNewPostRequiresLogin(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)

	resp, _ := b.get("/new-post")
	assertRedirect(t, resp, "/login")
	_, page := b.get("/login")
	assert.Contains(t, page, "Please log in to access this page.")
}

func TestContactFlashesOutcome(t *testing.T) {
	sender := &fakeSender{}
	ts := newTestServer(t, sender)
	b := newBrowser(t, ts)

	values := url.Values{
		"name":    {"Ivy"},
		"email":   {"ivy@example.com"},
		"phone":   {"555-0100"},
		"message": {"Hi there"},
	}
	resp, _ := b.submit("/contact", "/contact", values)
	assertRedirect(t, resp, "/contact")
	_, page := b.get("/contact")
	assert.Contains(t, page, "Email sent successfully!")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Ivy", sender.sent[0].Name)

	sender.err = errors.New("smtp down")
	resp, _ = b.submit("/contact", "/contact", values)
	assertRedirect(t, resp, "/contact")
	_, page = b.get("/contact")
	assert.Contains(t, page, "smtp down")
}

func TestMissingCSRFTokenIsForbidden(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)
	b.get("/login")

	resp, err := b.c.PostForm(ts.URL+"/login", url.Values{
		"email": {"x@example.com"}, "password": {"x"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStaticPagesAndNotFound(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)

	resp, _ := b.get("/about")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.get("/post/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = b.get("/post/abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = b.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = b.get("/assets/css/styles.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, &fakeSender{})
	b := newBrowser(t, ts)

	resp, body := b.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"database":"ok"`)

	b.get("/about")
	resp, body = b.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, "blog_http_requests_total"), "metrics body lacks request counter")
}
