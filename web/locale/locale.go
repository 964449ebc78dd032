// Package locale translates flash messages and page labels.
package locale

import (
	"io/fs"
	"strings"

	"github.com/inkpost/blog/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const localizerKey = "localizer"

var (
	i18nBundle *i18n.Bundle
	matcher    language.Matcher
)

// InitLocalizer loads every file under translation/ in i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}

	i18nBundle = bundle
	matcher = language.NewMatcher(bundle.LanguageTags())
	return nil
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(i18nFS, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}

// Tags lists the languages with a translation file.
func Tags() []language.Tag {
	if i18nBundle == nil {
		return nil
	}
	return i18nBundle.LanguageTags()
}

// Match picks the best supported language for the given preferences, each
// either a tag or an Accept-Language header value.
func Match(prefs ...string) language.Tag {
	if matcher == nil {
		return language.AmericanEnglish
	}
	tag, _ := language.MatchStrings(matcher, prefs...)
	base, _ := tag.Base()
	region, _ := tag.Region()
	out, err := language.Compose(base, region)
	if err != nil {
		return tag
	}
	return out
}

func createTemplateData(params []string, separator ...string) map[string]any {
	sep := "=="
	if len(separator) > 0 {
		sep = separator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// Localize translates key with params given as "name==value". A missing
// localizer or message falls back to the key.
func Localize(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware picks the request language from the lang cookie or
// Accept-Language and stores a localizer for it in the context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if i18nBundle == nil {
			c.Next()
			return
		}
		var prefs []string
		if cookie, err := c.Cookie("lang"); err == nil && cookie != "" {
			prefs = append(prefs, cookie)
		}
		prefs = append(prefs, c.GetHeader("Accept-Language"))

		tag := Match(prefs...)
		c.Set(localizerKey, i18n.NewLocalizer(i18nBundle, tag.String()))
		c.Header("Content-Language", tag.String())
		c.Next()
	}
}

// GetLocalizer returns the request localizer, or nil outside LocalizerMiddleware.
func GetLocalizer(c *gin.Context) *i18n.Localizer {
	if v, ok := c.Get(localizerKey); ok {
		if l, ok := v.(*i18n.Localizer); ok {
			return l
		}
	}
	return nil
}

// I18n translates key for the current request.
func I18n(c *gin.Context, key string, params ...string) string {
	return Localize(GetLocalizer(c), key, params...)
}
