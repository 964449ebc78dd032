// Package session keeps the signed-in user, flash messages and the form
// token in the cookie-backed gin session.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/util/random"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUser = "LOGIN_USER"
	csrfToken = "CSRF_TOKEN"

	// CookieName is the name of the session cookie.
	CookieName = "inkpost"
)

// Flash categories used by the templates.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// SetLoginUser starts an authenticated session for user. Only the id is stored.
// Like the other setters it only changes the session; the response that ends
// the request saves it once.
func SetLoginUser(c *gin.Context, user *model.User) {
	sessions.Default(c).Set(loginUser, user.Id)
}

// ForgetLoginUser drops the signed-in user and keeps flashes and the form token.
func ForgetLoginUser(c *gin.Context) {
	sessions.Default(c).Delete(loginUser)
}

// GetLoginUserId returns the id of the signed-in user, or 0.
func GetLoginUserId(c *gin.Context) int {
	s := sessions.Default(c)
	if id, ok := s.Get(loginUser).(int); ok {
		return id
	}
	return 0
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUserId(c) != 0
}

// ClearSession ends the session and expires its cookie on the next save.
// Pending flashes are dropped with it.
func ClearSession(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// AddFlash queues a message for the next page.
func AddFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(Flash{Category: category, Message: message})
}

// Flashes pops the queued messages. The caller must save the session.
func Flashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	var flashes []Flash
	for _, v := range s.Flashes() {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// CSRFToken returns the session's form token, creating it on first use.
// The caller must save the session.
func CSRFToken(c *gin.Context) string {
	s := sessions.Default(c)
	if token, ok := s.Get(csrfToken).(string); ok && token != "" {
		return token
	}
	token := random.Seq(32)
	s.Set(csrfToken, token)
	return token
}

// PeekCSRFToken returns the stored token without creating one.
func PeekCSRFToken(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(csrfToken).(string)
	return token
}

// Save writes the session cookie. Call it once per response.
func Save(c *gin.Context) error {
	return sessions.Default(c).Save()
}
