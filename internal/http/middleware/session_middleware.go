package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/i18n"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/security"
)

const ProtectionBypassHeader = "X-Protection-Bypass"

type userContextKey struct{}

// ResolvedSession is the outcome of a session lookup. ReissuedCookie is set
// when the session expiry slid forward and the cookie must be rewritten.
type ResolvedSession struct {
	User           *domain.User
	ReissuedCookie string
	ExpiresAt      time.Time
}

type SessionResolver interface {
	Resolve(r *http.Request) (*ResolvedSession, error)
}

type BotProtection struct {
	Enabled     bool
	BypassToken string
	Detector    *security.BotDetector
}

type SessionMiddlewareConfig struct {
	Resolver SessionResolver
	Bot      BotProtection
	Cookies  *security.CookieManager
	Logger   *slog.Logger
}

type SessionMiddleware struct {
	cfg SessionMiddlewareConfig
}

func NewSessionMiddleware(cfg SessionMiddlewareConfig) *SessionMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Bot.Detector == nil {
		cfg.Bot.Detector = security.DefaultBotDetector()
	}
	return &SessionMiddleware{cfg: cfg}
}

// Handler runs, in order: static exclusion, bot protection, locale prefix
// parsing, session lookup and the dashboard / auth-page redirects.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsExcludedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if m.cfg.Bot.Enabled && !m.allowBot(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Forbidden"})
			return
		}

		locale, rest := i18n.SplitPrefix(r.URL.Path)
		user := m.resolve(w, r)
		if user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}

		switch {
		case user == nil && hasSegmentPrefix(rest, "/dashboard"):
			http.Redirect(w, r, localized(locale, "/sign-in"), http.StatusFound)
			return
		case user != nil && (hasSegmentPrefix(rest, "/sign-in") || hasSegmentPrefix(rest, "/sign-up")):
			http.Redirect(w, r, localized(locale, "/dashboard"), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *SessionMiddleware) allowBot(r *http.Request) bool {
	if tok := m.cfg.Bot.BypassToken; tok != "" {
		if got := r.Header.Get(ProtectionBypassHeader); got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(tok)) == 1 {
			observability.RecordBotProtectionDecision(r.Context(), "bypass", "allow")
			return true
		}
	}
	category := m.cfg.Bot.Detector.Classify(r.UserAgent())
	if m.cfg.Bot.Detector.Allowed(category) {
		observability.RecordBotProtectionDecision(r.Context(), string(category), "allow")
		return true
	}
	observability.RecordBotProtectionDecision(r.Context(), string(category), "deny")
	m.cfg.Logger.InfoContext(r.Context(), "request blocked by bot protection", "category", category, "path", r.URL.Path)
	return false
}

// resolve treats every lookup error as "no session".
func (m *SessionMiddleware) resolve(w http.ResponseWriter, r *http.Request) *domain.User {
	if m.cfg.Resolver == nil {
		return nil
	}
	res, err := m.cfg.Resolver.Resolve(r)
	if err != nil {
		m.cfg.Logger.DebugContext(r.Context(), "session lookup failed", "path", r.URL.Path, "error", err)
		return nil
	}
	if res == nil || res.User == nil {
		return nil
	}
	if res.ReissuedCookie != "" && m.cfg.Cookies != nil {
		csrf := security.GetCookie(r, security.CSRFCookieName)
		if csrf == "" {
			csrf, _ = security.NewOpaqueToken(32)
		}
		m.cfg.Cookies.SetSessionCookies(w, res.ReissuedCookie, csrf, time.Until(res.ExpiresAt))
	}
	return res.User
}

// IsExcludedPath matches framework assets, monitoring and any path that
// looks like a file.
func IsExcludedPath(path string) bool {
	p := strings.TrimPrefix(path, "/")
	return strings.HasPrefix(p, "_next") ||
		strings.HasPrefix(p, "_vercel") ||
		strings.HasPrefix(p, "monitoring") ||
		strings.Contains(p, ".")
}

func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func localized(locale, path string) string {
	if locale == "" {
		return path
	}
	return "/" + locale + path
}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*domain.User)
	return u, ok && u != nil
}
