package controller

import (
	"net/http"

	"github.com/inkpost/blog/web/mail"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// ContactController shows the contact form and forwards submissions to the owner.
type ContactController struct {
	BaseController
}

func NewContactController(g *gin.RouterGroup, deps *Deps) *ContactController {
	a := &ContactController{BaseController{deps: deps}}
	a.initRouter(g)
	return a
}

func (a *ContactController) initRouter(g *gin.RouterGroup) {
	g.GET("/contact", a.page)
	g.POST("/contact", a.send)
}

func (a *ContactController) page(c *gin.Context) {
	html(c, "contact.html", "nav.contact", gin.H{"form": ContactForm{}})
}

// send blocks until the delivery attempt finishes, then reports the outcome
// as a flash whether or not it worked.
func (a *ContactController) send(c *gin.Context) {
	var form ContactForm
	if err := c.ShouldBind(&form); err != nil {
		htmlStatus(c, http.StatusUnprocessableEntity, "contact.html", "nav.contact", gin.H{
			"form":   form,
			"errors": formErrors(c, err),
		})
		return
	}

	err := a.deps.Contact.Send(c.Request.Context(), mail.ContactMessage{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Message: form.Message,
	})
	if err != nil {
		flash(c, session.FlashError, "flash.mailFailed", "Error=="+err.Error())
	} else {
		flash(c, session.FlashSuccess, "flash.mailSent")
	}
	redirect(c, "/contact")
}
