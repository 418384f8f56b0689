package security

import (
	"net/http"
	"strings"
	"time"
)

const (
	SessionCookieName    = "lmring.session_token"
	CSRFCookieName       = "lmring.csrf_token"
	OAuthStateCookieName = "lmring.oauth_state"

	oauthStateCookiePath = "/api/auth/callback"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	mode := http.SameSiteLaxMode
	switch strings.ToLower(strings.TrimSpace(sameSite)) {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode}
}

// SetSessionCookies writes the session cookie and a readable CSRF cookie with
// the same lifetime.
func (m *CookieManager) SetSessionCookies(w http.ResponseWriter, sessionValue, csrfToken string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	http.SetCookie(w, m.cookie(SessionCookieName, sessionValue, "/", maxAge, true))
	http.SetCookie(w, m.cookie(CSRFCookieName, csrfToken, "/", maxAge, false))
}

func (m *CookieManager) ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(SessionCookieName, "", "/", -1, true))
	http.SetCookie(w, m.cookie(CSRFCookieName, "", "/", -1, false))
}

func (m *CookieManager) SetOAuthStateCookie(w http.ResponseWriter, state string, ttl time.Duration) {
	http.SetCookie(w, m.cookie(OAuthStateCookieName, state, oauthStateCookiePath, int(ttl.Seconds()), true))
}

func (m *CookieManager) ClearOAuthStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(OAuthStateCookieName, "", oauthStateCookiePath, -1, true))
}

func (m *CookieManager) cookie(name, value, path string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   m.Domain,
		MaxAge:   maxAge,
		Secure:   m.Secure,
		HttpOnly: httpOnly,
		SameSite: m.SameSite,
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
