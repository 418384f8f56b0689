package middleware

import (
	"net/http"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/security"
	"github.com/lmring/lmring/internal/service"
)

// CookieSessionResolver reads the session cookie and validates it.
type CookieSessionResolver struct {
	sessions service.SessionValidator
}

func NewCookieSessionResolver(sessions service.SessionValidator) *CookieSessionResolver {
	return &CookieSessionResolver{sessions: sessions}
}

func (c *CookieSessionResolver) Resolve(r *http.Request) (*ResolvedSession, error) {
	raw := security.GetCookie(r, security.SessionCookieName)
	if raw == "" {
		return nil, auth.ErrSessionExpired
	}
	active, err := c.sessions.Validate(r.Context(), raw)
	if err != nil {
		return nil, err
	}
	out := &ResolvedSession{User: active.User, ExpiresAt: active.Session.ExpiresAt}
	if active.Extended {
		if cookie, err := c.sessions.ReissueCookie(active, raw); err == nil {
			out.ReissuedCookie = cookie
		}
	}
	return out, nil
}
