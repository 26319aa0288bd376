package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey indexes the resolved locale in a request context.
var LocaleKey = localeContextKey{}

var supportedLocales = language.NewMatcher([]language.Tag{
	language.French, // first entry is the product default
	language.English,
})

// Locale resolves the reply locale from an explicit X-Locale header or the
// Accept-Language negotiation, falling back to the configured default.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := defaultLocale
			if v := r.Header.Get("X-Locale"); v != "" {
				locale = normalizeLocale(v)
			} else if v := r.Header.Get("Accept-Language"); v != "" {
				if tag, _, err := language.ParseAcceptLanguage(v); err == nil && len(tag) > 0 {
					matched, _, _ := supportedLocales.Match(tag...)
					if base, conf := matched.Base(); conf != language.No {
						locale = base.String()
					}
				}
			}
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func normalizeLocale(v string) string {
	tag, err := language.Parse(v)
	if err != nil {
		return v
	}
	base, _ := tag.Base()
	return base.String()
}

// LocaleFromContext returns the locale resolved for the request, or "".
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return ""
}
