// Package controller holds the blog's route handlers: one controller per
// area (posts, accounts, static pages, contact form).
package controller

import (
	"net/http"
	"strconv"

	"github.com/inkpost/blog/util/metrics"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/service"

	"github.com/gin-gonic/gin"
)

// Deps are the services the controllers work with.
type Deps struct {
	Users    *service.UserService
	Posts    *service.PostService
	Comments *service.CommentService
	Contact  *service.ContactService
	Metrics  *metrics.Collector
}

// BaseController provides what every controller shares.
type BaseController struct {
	deps *Deps
}

// RenderError renders the error page for status.
func RenderError(c *gin.Context, status int) {
	key := "pages.error." + strconv.Itoa(status)
	msg := locale.I18n(c, key)
	if msg == key {
		msg = http.StatusText(status)
	}
	htmlStatus(c, status, "error.html", "", gin.H{
		"title":   http.StatusText(status),
		"status":  status,
		"message": msg,
	})
}

// I18nWeb translates name for the current request.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(c, name, params...)
}

func postId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
