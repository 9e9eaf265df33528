// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

const fallbackLanguage = "en"

// I18nMiddleware resolves the request language against the loaded locales.
func I18nMiddleware() gin.HandlerFunc {
	supported := i18n.GetSupportedLanguages()
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, preferredLanguage(c.GetHeader("Accept-Language"), supported))
		c.Next()
	}
}

// preferredLanguage walks values like "fr-FR,vi;q=0.9,en;q=0.8" in order and
// returns the first primary tag that has a locale.
func preferredLanguage(header string, supported []string) string {
	for _, entry := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.Split(entry, ";")[0]))
		primary := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
		if len(primary) == 0 {
			continue
		}
		for _, lang := range supported {
			if primary[0] == lang {
				return lang
			}
		}
	}
	return fallbackLanguage
}
