package middleware

import (
	"net/http"
	"time"

	"github.com/inkpost/blog/logger"

	"github.com/gin-gonic/gin"
)

// RequestObserver receives the outcome of every request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestLogger logs each request at a level matching its status and reports
// it to observer when one is given.
func RequestLogger(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		if observer != nil {
			observer.ObserveRequest(c.Request.Method, c.FullPath(), status, elapsed)
		}

		line := "%s %s %d %s user=%d ip=%s id=%s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, elapsed.Round(time.Microsecond),
			userId(GetCurrentUser(c)), c.ClientIP(), GetRequestID(c)}
		switch {
		case status >= 500:
			logger.Errorf(line, args...)
		case status >= 400:
			logger.Warningf(line, args...)
		default:
			logger.Debugf(line, args...)
		}
	}
}

// Recovery turns a panic into the 500 page.
func Recovery(fail ErrorRenderer) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		fail(c, http.StatusInternalServerError)
		c.Abort()
	})
}
