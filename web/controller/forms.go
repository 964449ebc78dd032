package controller

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type RegisterForm struct {
	Email    string `form:"email" binding:"required,email,max=250"`
	Password string `form:"password" binding:"required,notblank"`
	Name     string `form:"name" binding:"required,notblank,max=250"`
}

type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,notblank"`
}

type CommentForm struct {
	Comment string `form:"comment" binding:"required,notblank"`
}

type PostForm struct {
	Title    string `form:"title" binding:"required,notblank,max=250"`
	Subtitle string `form:"subtitle" binding:"required,notblank,max=250"`
	ImgUrl   string `form:"img_url" binding:"required,url,max=250"`
	Body     string `form:"body" binding:"required,notblank"`
}

type ContactForm struct {
	Name    string `form:"name" binding:"required,notblank,max=250"`
	Email   string `form:"email" binding:"required,email"`
	Phone   string `form:"phone" binding:"max=50"`
	Message string `form:"message" binding:"required,notblank"`
}

var registerTagName sync.Once

// UseFormFieldNames makes validation errors name fields by their form key and
// registers the notblank rule, which rejects whitespace-only values.
func UseFormFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
	})
}

// formErrors turns a binding error into one translated message per field.
func formErrors(c *gin.Context, err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_form"] = I18nWeb(c, "validation.invalid")
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		switch fe.Tag() {
		case "required", "notblank":
			out[fe.Field()] = I18nWeb(c, "validation.required")
		case "email", "url":
			out[fe.Field()] = I18nWeb(c, "validation."+fe.Tag())
		case "max":
			out[fe.Field()] = I18nWeb(c, "validation.max", "Param=="+fe.Param())
		default:
			out[fe.Field()] = I18nWeb(c, "validation.invalid")
		}
	}
	return out
}
