package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

const (
	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CSRF rejects state-changing requests whose form field or header does not
// carry the token stored in the session.
func CSRF(fail ErrorRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		got := c.PostForm(CSRFFormField)
		if got == "" {
			got = c.GetHeader(CSRFHeader)
		}
		if !ValidCSRFToken(c, got) {
			logger.Warningf("CSRF validation failed: %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
			fail(c, http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ValidCSRFToken reports whether got matches the session's form token.
// A session without a token matches nothing.
func ValidCSRFToken(c *gin.Context, got string) bool {
	expected := session.PeekCSRFToken(c)
	return expected != "" && subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
