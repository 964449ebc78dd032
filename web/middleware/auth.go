package middleware

import (
	"net/http"
	"strconv"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

const (
	currentUserKey = "current_user"
	postKey        = "post"
)

// ErrorRenderer writes the error page for status.
type ErrorRenderer func(c *gin.Context, status int)

type UserLoader interface {
	GetUser(id int) (*model.User, error)
}

type PostLoader interface {
	Get(id int) (*model.Post, error)
}

// CurrentUser resolves the session's user id to an account for the rest of
// the chain. An id whose account is gone signs the visitor out.
func CurrentUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := session.GetLoginUserId(c); id != 0 {
			user, err := users.GetUser(id)
			switch {
			case err != nil:
				logger.Warning("load session user failed:", err)
			case user == nil:
				logger.Infof("session refers to missing user %d, signing out", id)
				session.ForgetLoginUser(c)
			default:
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

// GetCurrentUser returns the signed-in user, or nil for anonymous visitors.
func GetCurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

func IsAuthenticated(c *gin.Context) bool {
	return GetCurrentUser(c) != nil
}

// AuthRequired sends anonymous visitors to the login page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}
		session.AddFlash(c, session.FlashWarning, locale.I18n(c, "flash.loginRequired"))
		if err := session.Save(c); err != nil {
			logger.Warning("save flash failed:", err)
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// AuthorOnly loads the post named by the :id parameter and lets the request
// through only when the signed-in user wrote it.
func AuthorOnly(posts PostLoader, fail ErrorRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			fail(c, http.StatusNotFound)
			c.Abort()
			return
		}

		post, err := posts.Get(id)
		if err != nil {
			status := http.StatusInternalServerError
			if isNotFound(err) {
				status = http.StatusNotFound
			} else {
				logger.Error("load post failed:", err)
			}
			fail(c, status)
			c.Abort()
			return
		}

		user := GetCurrentUser(c)
		if !service.CanModify(user, post) {
			logger.Warningf("user %d refused %s on post %d", userId(user), c.Request.Method+" "+c.FullPath(), post.Id)
			fail(c, http.StatusForbidden)
			c.Abort()
			return
		}

		c.Set(postKey, post)
		c.Next()
	}
}

// GetPost returns the post loaded by AuthorOnly.
func GetPost(c *gin.Context) *model.Post {
	if v, ok := c.Get(postKey); ok {
		if p, ok := v.(*model.Post); ok {
			return p
		}
	}
	return nil
}

func userId(u *model.User) int {
	if u == nil {
		return 0
	}
	return u.Id
}
