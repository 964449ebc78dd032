package controller

import (
	"net/http"

	"github.com/inkpost/blog/logger"

	"github.com/gin-gonic/gin"
)

// IndexController serves the post list and the static pages.
type IndexController struct {
	BaseController
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup, deps *Deps) *IndexController {
	a := &IndexController{BaseController{deps: deps}}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/about", a.about)
}

// index lists every post.
func (a *IndexController) index(c *gin.Context) {
	posts, err := a.deps.Posts.List()
	if err != nil {
		logger.Error("list posts:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}
	html(c, "index.html", "siteName", gin.H{
		"all_posts": posts,
	})
}

func (a *IndexController) about(c *gin.Context) {
	html(c, "about.html", "nav.about", nil)
}
