package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// PostController shows posts, takes comments and lets authors manage their posts.
type PostController struct {
	BaseController
}

func NewPostController(g *gin.RouterGroup, deps *Deps) *PostController {
	a := &PostController{BaseController{deps: deps}}
	a.initRouter(g)
	return a
}

func (a *PostController) initRouter(g *gin.RouterGroup) {
	g.GET("/post/:id", a.show)
	g.POST("/post/:id", a.comment)

	authed := g.Group("/", middleware.AuthRequired())
	authed.GET("/new-post", a.newPostPage)
	authed.POST("/new-post", a.create)

	authorOnly := authed.Group("/", middleware.AuthorOnly(a.deps.Posts, RenderError))
	authorOnly.GET("/edit-post/:id", a.editPage)
	authorOnly.POST("/edit-post/:id", a.update)
	authorOnly.GET("/delete/:id", a.delete)
}

// load fetches the post named by :id, rendering 404 or 500 itself on failure.
func (a *PostController) load(c *gin.Context) (*model.Post, bool) {
	id, ok := postId(c)
	if !ok {
		RenderError(c, http.StatusNotFound)
		return nil, false
	}
	post, err := a.deps.Posts.Get(id)
	if errors.Is(err, service.ErrPostNotFound) {
		RenderError(c, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.Error("load post:", err)
		RenderError(c, http.StatusInternalServerError)
		return nil, false
	}
	return post, true
}

func (a *PostController) renderPost(c *gin.Context, status int, post *model.Post, form CommentForm, errs map[string]string) {
	comments, err := a.deps.Comments.ListForPost(post.Id)
	if err != nil {
		logger.Error("list comments:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}
	htmlStatus(c, status, "post.html", "", gin.H{
		"title":     post.Title,
		"post":      post,
		"comments":  comments,
		"is_author": service.CanModify(middleware.GetCurrentUser(c), post),
		"form":      form,
		"errors":    errs,
	})
}

func (a *PostController) show(c *gin.Context) {
	post, ok := a.load(c)
	if !ok {
		return
	}
	a.renderPost(c, http.StatusOK, post, CommentForm{}, nil)
}

func (a *PostController) comment(c *gin.Context) {
	post, ok := a.load(c)
	if !ok {
		return
	}

	user := middleware.GetCurrentUser(c)
	if user == nil {
		flash(c, session.FlashDanger, "flash.loginToComment")
		redirect(c, "/login")
		return
	}

	var form CommentForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderPost(c, http.StatusUnprocessableEntity, post, form, formErrors(c, err))
		return
	}

	if _, err := a.deps.Comments.Add(user, post, form.Comment); err != nil {
		logger.Error("add comment:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}
	a.deps.Metrics.RecordCommentCreated()
	redirect(c, fmt.Sprintf("/post/%d", post.Id))
}

func (a *PostController) renderForm(c *gin.Context, status int, editing bool, form PostForm, errs map[string]string) {
	heading, subheading := "pages.makePost.new", "pages.makePost.newSubheading"
	if editing {
		heading, subheading = "pages.makePost.edit", "pages.makePost.editSubheading"
	}
	htmlStatus(c, status, "make-post.html", heading, gin.H{
		"heading":    I18nWeb(c, heading),
		"subheading": I18nWeb(c, subheading),
		"action":     c.Request.URL.Path,
		"form":       form,
		"errors":     errs,
	})
}

func (a *PostController) newPostPage(c *gin.Context) {
	a.renderForm(c, http.StatusOK, false, PostForm{}, nil)
}

func (a *PostController) create(c *gin.Context) {
	var form PostForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderForm(c, http.StatusUnprocessableEntity, false, form, formErrors(c, err))
		return
	}

	post, err := a.deps.Posts.Create(middleware.GetCurrentUser(c), postInput(form))
	if errors.Is(err, service.ErrDuplicateTitle) {
		a.renderForm(c, http.StatusUnprocessableEntity, false, form, map[string]string{
			"title": I18nWeb(c, "flash.duplicateTitle"),
		})
		return
	}
	if err != nil {
		logger.Error("create post:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}
	a.deps.Metrics.RecordPostCreated()
	logger.Debugf("post %d is live", post.Id)
	redirect(c, "/")
}

func (a *PostController) editPage(c *gin.Context) {
	post := middleware.GetPost(c)
	a.renderForm(c, http.StatusOK, true, PostForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		ImgUrl:   post.ImgUrl,
		Body:     post.Body,
	}, nil)
}

func (a *PostController) update(c *gin.Context) {
	post := middleware.GetPost(c)

	var form PostForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderForm(c, http.StatusUnprocessableEntity, true, form, formErrors(c, err))
		return
	}

	err := a.deps.Posts.Update(middleware.GetCurrentUser(c), post, postInput(form))
	if errors.Is(err, service.ErrDuplicateTitle) {
		a.renderForm(c, http.StatusUnprocessableEntity, true, form, map[string]string{
			"title": I18nWeb(c, "flash.duplicateTitle"),
		})
		return
	}
	if errors.Is(err, service.ErrForbidden) {
		RenderError(c, http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Error("update post:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}
	redirect(c, fmt.Sprintf("/post/%d", post.Id))
}

// delete is reached by a plain link, so the form token rides in the query string.
func (a *PostController) delete(c *gin.Context) {
	post := middleware.GetPost(c)
	if !middleware.ValidCSRFToken(c, c.Query(middleware.CSRFFormField)) {
		logger.Warningf("delete of post %d refused: bad form token", post.Id)
		RenderError(c, http.StatusForbidden)
		return
	}

	err := a.deps.Posts.Delete(middleware.GetCurrentUser(c), post)
	switch {
	case errors.Is(err, service.ErrForbidden):
		RenderError(c, http.StatusForbidden)
		return
	case errors.Is(err, service.ErrPostNotFound):
		RenderError(c, http.StatusNotFound)
		return
	case err != nil:
		logger.Error("delete post:", err)
		RenderError(c, http.StatusInternalServerError)
		return
	}
	redirect(c, "/")
}

func postInput(form PostForm) service.PostInput {
	return service.PostInput{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Body:     form.Body,
		ImgUrl:   form.ImgUrl,
	}
}
