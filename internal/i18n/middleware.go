package i18n

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lmring/lmring/internal/observability"
)

// Middleware applies as-needed locale routing:
//   - /fr/x is served as /x with locale fr
//   - /en/x (default prefix) redirects to /x
//   - /x detects the locale and redirects to /fr/x when it is not the default
//   - an unsupported two-letter prefix is left alone so routing 404s
//
// An explicit prefix is remembered in the NEXT_LOCALE cookie so that bare
// paths keep the locale the visitor last chose.
func (rt *Routing) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, rest := SplitPrefix(r.URL.Path)
		switch {
		case prefix == "":
			locale := rt.Detect(r)
			if locale != rt.def && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
				observability.RecordLocaleRedirect(r.Context(), "detected")
				redirect(w, r, rt.LocalizedPath(locale, r.URL.Path))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), rt.def)))
		case prefix == rt.def:
			observability.RecordLocaleRedirect(r.Context(), "default_prefix")
			rememberLocale(w, prefix)
			redirect(w, r, rest)
		case rt.Supported(prefix):
			rememberLocale(w, prefix)
			ctx := WithLocale(r.Context(), prefix)
			r = r.WithContext(ctx)
			if rctx := chi.RouteContext(ctx); rctx != nil {
				rctx.RoutePath = rest
			} else {
				u := *r.URL
				u.Path = rest
				u.RawPath = ""
				r.URL = &u
			}
			next.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if q := r.URL.RawQuery; q != "" {
		path += "?" + q
	}
	http.Redirect(w, r, path, http.StatusTemporaryRedirect)
}

func rememberLocale(w http.ResponseWriter, locale string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    locale,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
}
