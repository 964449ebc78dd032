package controller

import (
	"errors"
	"net/http"
	"text/template"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// UserController handles registration, login and logout.
type UserController struct {
	BaseController
}

func NewUserController(g *gin.RouterGroup, deps *Deps) *UserController {
	a := &UserController{BaseController{deps: deps}}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	g.GET("/register", a.registerPage)
	g.POST("/register", a.register)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.GET("/logout", a.logout)
}

func (a *UserController) registerPage(c *gin.Context) {
	html(c, "register.html", "nav.register", gin.H{"form": RegisterForm{}})
}

func (a *UserController) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		htmlStatus(c, http.StatusUnprocessableEntity, "register.html", "nav.register", gin.H{
			"form":   form,
			"errors": formErrors(c, err),
		})
		return
	}

	user, err := a.deps.Users.Register(form.Email, form.Password, form.Name)
	if errors.Is(err, service.ErrDuplicateAccount) {
		logger.Infof("registration refused, %q already signed up", template.HTMLEscapeString(form.Email))
		flash(c, session.FlashWarning, "flash.registerDuplicate")
		redirect(c, "/login")
		return
	}
	if err != nil {
		logger.Error("register user:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}

	a.startSession(c, user)
}

func (a *UserController) loginPage(c *gin.Context) {
	html(c, "login.html", "nav.login", gin.H{"form": LoginForm{}})
}

func (a *UserController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		htmlStatus(c, http.StatusUnprocessableEntity, "login.html", "nav.login", gin.H{
			"form":   form,
			"errors": formErrors(c, err),
		})
		return
	}

	user, err := a.deps.Users.Login(form.Email, form.Password)
	safeEmail := template.HTMLEscapeString(form.Email)
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		logger.Warningf("login for unknown email \"%s\", IP: \"%s\"", safeEmail, getRemoteIp(c))
		a.deps.Metrics.RecordFailedLogin("unknown_email")
		flash(c, session.FlashDanger, "flash.emailNotFound")
		redirect(c, "/register")
		return
	case errors.Is(err, service.ErrBadCredentials):
		logger.Warningf("wrong password for \"%s\", IP: \"%s\"", safeEmail, getRemoteIp(c))
		a.deps.Metrics.RecordFailedLogin("bad_password")
		flash(c, session.FlashDanger, "flash.passwordIncorrect")
		redirect(c, "/login")
		return
	case err != nil:
		logger.Error("login:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}

	a.startSession(c, user)
}

func (a *UserController) startSession(c *gin.Context, user *model.User) {
	session.SetLoginUser(c, user)
	logger.Infof("user %d logged in successfully, Ip Address: %s", user.Id, getRemoteIp(c))
	redirect(c, "/")
}

func (a *UserController) logout(c *gin.Context) {
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.Infof("user %d logged out", user.Id)
	}
	session.ClearSession(c)
	redirect(c, "/")
}
