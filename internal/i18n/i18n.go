// Package i18n resolves the request locale for server-rendered pages. URLs
// use the "as-needed" prefix mode: the default locale has no prefix, every
// other supported locale does.
package i18n

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

const (
	CookieName    = "NEXT_LOCALE"
	DefaultLocale = "en"
)

var (
	SupportedLocales = []string{"en", "zh", "fr"}
	prefixRe         = regexp.MustCompile(`^/([a-z]{2})(/|$)`)
)

type ctxKey struct{}

// Routing holds the supported locales and the negotiation matcher.
type Routing struct {
	locales []string
	def     string
	tags    []language.Tag
	matcher language.Matcher
}

// NewRouting keeps the default first so the matcher falls back to it.
// Unknown or empty input yields the built-in en/zh/fr set.
func NewRouting(locales []string, def string) *Routing {
	if len(locales) == 0 {
		locales = SupportedLocales
	}
	if def == "" || !slices.Contains(locales, def) {
		def = locales[0]
	}
	ordered := append([]string{def}, slices.DeleteFunc(slices.Clone(locales), func(l string) bool { return l == def })...)
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		tags = append(tags, language.Make(l))
	}
	return &Routing{locales: ordered, def: def, tags: tags, matcher: language.NewMatcher(tags)}
}

func (rt *Routing) Locales() []string { return slices.Clone(rt.locales) }

func (rt *Routing) Default() string { return rt.def }

func (rt *Routing) Supported(locale string) bool {
	return slices.Contains(rt.locales, locale)
}

// SplitPrefix extracts a leading two-letter segment, whether or not it is a
// supported locale. rest always starts with "/".
func SplitPrefix(path string) (prefix, rest string) {
	m := prefixRe.FindStringSubmatch(path)
	if m == nil {
		return "", path
	}
	rest = path[len(m[1])+1:]
	if rest == "" {
		rest = "/"
	}
	return m[1], rest
}

// Detect picks a locale from the NEXT_LOCALE cookie, then Accept-Language,
// then the default.
func (rt *Routing) Detect(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && rt.Supported(c.Value) {
		return c.Value
	}
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return rt.def
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return rt.def
	}
	_, idx, conf := rt.matcher.Match(tags...)
	if conf == language.No {
		return rt.def
	}
	return rt.locales[idx]
}

// LocalizedPath prefixes path for a non-default locale.
func (rt *Routing) LocalizedPath(locale, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if locale == "" || locale == rt.def || !rt.Supported(locale) {
		return path
	}
	if path == "/" {
		return "/" + locale
	}
	return "/" + locale + path
}

func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

func LocaleFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLocale
}
