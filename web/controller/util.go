package controller

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}

// html renders a page with status 200.
func html(c *gin.Context, name string, title string, data gin.H) {
	htmlStatus(c, http.StatusOK, name, title, data)
}

// htmlStatus renders a page with the shared layout data: pending flashes,
// the form token and the signed-in user. Title is a translation key, used
// unless data already carries a literal title.
func htmlStatus(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["title"]; !ok {
		data["title"] = locale.I18n(c, title)
	}
	data["request_uri"] = c.Request.RequestURI
	data["flashes"] = session.Flashes(c)
	data["csrf_token"] = session.CSRFToken(c)
	if err := session.Save(c); err != nil {
		logger.Warning("Unable to save session:", err)
	}
	user := middleware.GetCurrentUser(c)
	data["current_user"] = user
	data["is_logged"] = user != nil
	data["loc"] = locale.GetLocalizer(c)
	c.HTML(status, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":   config.GetVersion(),
		"site_name": config.GetName(),
		"year":      time.Now().Year(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// flash queues a translated message for the next page.
func flash(c *gin.Context, category, key string, params ...string) {
	session.AddFlash(c, category, I18nWeb(c, key, params...))
}

// redirect saves the session, carrying any queued flash, and answers 302.
func redirect(c *gin.Context, location string) {
	if err := session.Save(c); err != nil {
		logger.Warning("Unable to save session:", err)
	}
	c.Redirect(http.StatusFound, location)
}
