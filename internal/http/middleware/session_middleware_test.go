package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/security"
)

type stubResolver struct {
	res   *ResolvedSession
	err   error
	calls int
}

func (s *stubResolver) Resolve(*http.Request) (*ResolvedSession, error) {
	s.calls++
	return s.res, s.err
}

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36"

func signedIn() *stubResolver {
	return &stubResolver{res: &ResolvedSession{User: &domain.User{
		ID:     uuid.New(),
		Email:  "ada@example.com",
		Role:   domain.RoleUser,
		Status: domain.StatusActive,
	}}}
}

func serveSession(t *testing.T, cfg SessionMiddlewareConfig, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	reached := false
	h := NewSessionMiddleware(cfg).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", browserUA)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, reached
}

func TestSessionMiddlewareRedirects(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		resolver *stubResolver
		wantCode int
		wantLoc  string
	}{
		{"dashboard without session", "/en/dashboard", &stubResolver{}, http.StatusFound, "/en/sign-in"},
		{"nested dashboard keeps locale", "/zh/dashboard/settings", &stubResolver{}, http.StatusFound, "/zh/sign-in"},
		{"unprefixed dashboard", "/dashboard", &stubResolver{}, http.StatusFound, "/sign-in"},
		{"lookup error counts as anonymous", "/fr/dashboard", &stubResolver{err: errors.New("db down")}, http.StatusFound, "/fr/sign-in"},
		{"sign-in with session", "/en/sign-in", signedIn(), http.StatusFound, "/en/dashboard"},
		{"sign-up with session", "/fr/sign-up", signedIn(), http.StatusFound, "/fr/dashboard"},
		{"dashboard with session", "/en/dashboard", signedIn(), http.StatusOK, ""},
		{"sign-in without session", "/en/sign-in", &stubResolver{}, http.StatusOK, ""},
		{"dashboard-like prefix is not dashboard", "/en/dashboards", &stubResolver{}, http.StatusOK, ""},
		{"public page", "/en", &stubResolver{}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, _ := serveSession(t, SessionMiddlewareConfig{Resolver: tc.resolver}, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if got := rr.Header().Get("Location"); got != tc.wantLoc {
				t.Fatalf("expected location %q, got %q", tc.wantLoc, got)
			}
		})
	}
}

func TestSessionMiddlewareSkipsExcludedPaths(t *testing.T) {
	for _, p := range []string{"/_next/static/app.js", "/_vercel/insights", "/monitoring", "/favicon.ico", "/en/logo.svg"} {
		res := &stubResolver{}
		cfg := SessionMiddlewareConfig{Resolver: res, Bot: BotProtection{Enabled: true}}
		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.Header.Set("User-Agent", "curl/8.0")
		rr, reached := serveSession(t, cfg, req)
		if !reached || rr.Code != http.StatusOK {
			t.Fatalf("%s: expected pass-through, got %d", p, rr.Code)
		}
		if res.calls != 0 {
			t.Fatalf("%s: session must not be resolved for excluded paths", p)
		}
	}
}

func TestSessionMiddlewareBotProtection(t *testing.T) {
	cfg := SessionMiddlewareConfig{
		Resolver: &stubResolver{},
		Bot:      BotProtection{Enabled: true, BypassToken: "synthetic-secret"},
	}

	req := httptest.NewRequest(http.MethodGet, "/en", nil)
	req.Header.Set("User-Agent", "python-requests/2.31")
	rr, reached := serveSession(t, cfg, req)
	if reached || rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for automated client, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"error":"Forbidden"}` {
		t.Fatalf("unexpected body %q", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/en", nil)
	req.Header.Set("User-Agent", "python-requests/2.31")
	req.Header.Set(ProtectionBypassHeader, "synthetic-secret")
	if rr, reached := serveSession(t, cfg, req); !reached || rr.Code != http.StatusOK {
		t.Fatalf("expected bypass header to allow request, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/en", nil)
	req.Header.Set("User-Agent", "python-requests/2.31")
	req.Header.Set(ProtectionBypassHeader, "wrong")
	if rr, _ := serveSession(t, cfg, req); rr.Code != http.StatusForbidden {
		t.Fatalf("expected wrong bypass token to be denied, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/en", nil)
	req.Header.Set("User-Agent", "Googlebot/2.1 (+http://www.google.com/bot.html)")
	if rr, reached := serveSession(t, cfg, req); !reached || rr.Code != http.StatusOK {
		t.Fatalf("expected search engine crawler to pass, got %d", rr.Code)
	}

	cfg.Bot.Enabled = false
	req = httptest.NewRequest(http.MethodGet, "/en", nil)
	req.Header.Set("User-Agent", "python-requests/2.31")
	if rr, reached := serveSession(t, cfg, req); !reached || rr.Code != http.StatusOK {
		t.Fatalf("expected disabled protection to allow everything, got %d", rr.Code)
	}
}

func TestSessionMiddlewareAttachesUserAndReissuesCookie(t *testing.T) {
	res := signedIn()
	res.res.ReissuedCookie = "slid-cookie"
	res.res.ExpiresAt = time.Now().Add(7 * 24 * time.Hour)

	var seen *domain.User
	h := NewSessionMiddleware(SessionMiddlewareConfig{
		Resolver: res,
		Cookies:  security.NewCookieManager("", false, "lax"),
	}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("User-Agent", browserUA)
	req.AddCookie(&http.Cookie{Name: security.CSRFCookieName, Value: "csrf-1"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen == nil || seen.ID != res.res.User.ID {
		t.Fatal("expected user in request context")
	}
	var session, csrf string
	for _, c := range rr.Result().Cookies() {
		switch c.Name {
		case security.SessionCookieName:
			session = c.Value
		case security.CSRFCookieName:
			csrf = c.Value
		}
	}
	if session != "slid-cookie" {
		t.Fatalf("expected reissued session cookie, got %q", session)
	}
	if csrf != "csrf-1" {
		t.Fatalf("expected csrf cookie to be preserved, got %q", csrf)
	}
}

func TestRequireSessionAndRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	rr := httptest.NewRecorder()
	RequireSession(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	user := &domain.User{ID: uuid.New(), Role: domain.RoleUser, Status: domain.StatusActive}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req = req.WithContext(WithUser(req.Context(), user))
	rr = httptest.NewRecorder()
	RequireRole(domain.RoleAdmin)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rr.Code)
	}

	user.Role = domain.RoleAdmin
	rr = httptest.NewRecorder()
	RequireRole(domain.RoleAdmin)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected admin to pass, got %d", rr.Code)
	}

	user.Status = domain.StatusDisabled
	rr = httptest.NewRecorder()
	RequireRole(domain.RoleAdmin)(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected disabled admin to be rejected, got %d", rr.Code)
	}
}
