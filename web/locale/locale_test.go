package locale

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func initFromDisk(t *testing.T) {
	t.Helper()
	require.NoError(t, InitLocalizer(os.DirFS("..")))
}

func TestMatch(t *testing.T) {
	initFromDisk(t)

	assert.ElementsMatch(t, []string{"en-US", "es-ES"}, tagStrings(Tags()))
	assert.Equal(t, "es-ES", Match("es-ES,es;q=0.9").String())
	assert.Equal(t, "es-ES", Match("es").String())
	assert.Equal(t, "en-US", Match("fr-FR").String())
	assert.Equal(t, "en-US", Match("").String())
}

func tagStrings(tags []language.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

func TestLocalize(t *testing.T) {
	initFromDisk(t)

	en := i18n.NewLocalizer(i18nBundle, "en-US")
	assert.Equal(t, "Password incorrect, please try again.", Localize(en, "flash.passwordIncorrect"))
	assert.Equal(t, "Error sending email: timeout", Localize(en, "flash.mailFailed", "Error==timeout"))
	assert.Equal(t, "That page does not exist.", Localize(en, "pages.error.404"))
	assert.Equal(t, "no.such.key", Localize(en, "no.such.key"))
	assert.Equal(t, "nav.home", Localize(nil, "nav.home"))

	es := i18n.NewLocalizer(i18nBundle, "es-ES")
	assert.Equal(t, "Inicio", Localize(es, "nav.home"))
}

func TestLocalizerMiddleware(t *testing.T) {
	initFromDisk(t)
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(LocalizerMiddleware())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, I18n(c, "nav.home"))
	})

	cases := []struct {
		name, cookie, accept, want, lang string
	}{
		{"default", "", "", "Home", "en-US"},
		{"header", "", "es-ES,es;q=0.8", "Inicio", "es-ES"},
		{"cookie wins", "en-US", "es-ES", "Home", "en-US"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "lang", Value: tc.cookie})
			}
			if tc.accept != "" {
				req.Header.Set("Accept-Language", tc.accept)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Body.String())
			assert.Equal(t, tc.lang, rec.Header().Get("Content-Language"))
		})
	}
}
