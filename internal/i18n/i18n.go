package i18n

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/text/language"
)

// Supported languages; Ukrainian is the default.
var (
	Ukrainian = language.Ukrainian
	English   = language.English
	German    = language.German
)

var (
	supported = []language.Tag{Ukrainian, English, German}
	matcher   = language.NewMatcher(supported)
)

type contextKey struct{}

// Negotiate picks the supported language best matching an Accept-Language header
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Ukrainian
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Ukrainian
	}
	return supported[index]
}

// Middleware stores the negotiated language in the request context.
// A lang query parameter takes precedence over Accept-Language.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Accept-Language")
		if lang := r.URL.Query().Get("lang"); lang != "" {
			header = lang
		}

		tag := Negotiate(header)
		w.Header().Set("Content-Language", tag.String())
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), tag)))
	})
}

// WithLanguage returns a context carrying tag
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, tag)
}

// FromContext returns the language of the request, Ukrainian when unset
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(contextKey{}).(language.Tag); ok {
		return tag
	}
	return Ukrainian
}

// T translates key into the language of ctx. Missing translations fall back
// to Ukrainian, then English, then the key itself.
func T(ctx context.Context, key string, args ...any) string {
	msg := lookup(FromContext(ctx), key)
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func lookup(tag language.Tag, key string) string {
	for _, t := range []language.Tag{tag, Ukrainian, English} {
		if msg, ok := catalog[t][key]; ok {
			return msg
		}
	}
	return key
}
