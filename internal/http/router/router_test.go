package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/http/handler"
	"github.com/lmring/lmring/internal/http/middleware"
	"github.com/lmring/lmring/internal/i18n"
	"github.com/lmring/lmring/internal/security"
)

type fixedResolver struct {
	user *domain.User
}

func (f fixedResolver) Resolve(*http.Request) (*middleware.ResolvedSession, error) {
	if f.user == nil {
		return nil, nil
	}
	return &middleware.ResolvedSession{User: f.user}, nil
}

type rankingsOnly struct{}

func (rankingsOnly) Cast(context.Context, uuid.UUID, uuid.UUID, domain.VoteType) (*domain.UserVote, error) {
	return nil, nil
}

func (rankingsOnly) ListForMessages(context.Context, uuid.UUID, []uuid.UUID) ([]domain.UserVote, error) {
	return nil, nil
}

func (rankingsOnly) Rankings(context.Context, int) ([]domain.ModelRanking, error) {
	return []domain.ModelRanking{{ModelName: "gpt-4o"}}, nil
}

func newTestRouter(t *testing.T, user *domain.User, bot bool) http.Handler {
	t.Helper()
	routing := i18n.NewRouting([]string{"en", "zh", "fr"}, "en")
	pages, err := handler.NewPageHandler(routing, nil, rankingsOnly{}, nil)
	if err != nil {
		t.Fatalf("page handler: %v", err)
	}
	cookies := security.NewCookieManager("", false, "lax")
	return NewRouter(Dependencies{
		AuthHandler:   handler.NewAuthHandler(nil, cookies, 0),
		UserHandler:   handler.NewUserHandler(nil, nil, 0),
		APIKeyHandler: handler.NewAPIKeyHandler(nil),
		ArenaHandler:  handler.NewArenaHandler(nil, rankingsOnly{}),
		AdminHandler:  handler.NewAdminHandler(nil),
		PageHandler:   pages,
		Session: middleware.NewSessionMiddleware(middleware.SessionMiddlewareConfig{
			Resolver: fixedResolver{user: user},
			Bot:      middleware.BotProtection{Enabled: bot, BypassToken: "monitor-token"},
			Cookies:  cookies,
		}),
		Routing:          routing,
		AuthRateLimitRPM: 2,
		APIRateLimitRPM:  100,
	})
}

func serve(h http.Handler, method, target string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if mutate != nil {
		mutate(req)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterAnonymousRouting(t *testing.T) {
	h := newTestRouter(t, nil, false)
	tests := []struct {
		name     string
		method   string
		target   string
		status   int
		location string
	}{
		{"liveness", http.MethodGet, "/health/live", http.StatusOK, ""},
		{"readiness without probes", http.MethodGet, "/health/ready", http.StatusOK, ""},
		{"dashboard requires session", http.MethodGet, "/dashboard", http.StatusFound, "/sign-in"},
		{"localized dashboard requires session", http.MethodGet, "/fr/dashboard/user-profile", http.StatusFound, "/fr/sign-in"},
		{"default prefix is dropped", http.MethodGet, "/en/sign-in", http.StatusTemporaryRedirect, "/sign-in"},
		{"localized sign-in renders", http.MethodGet, "/zh/sign-in", http.StatusOK, ""},
		{"unsupported prefix", http.MethodGet, "/de/sign-in", http.StatusNotFound, ""},
		{"api requires session", http.MethodGet, "/api/v1/me", http.StatusUnauthorized, ""},
		{"unknown auth route", http.MethodGet, "/api/auth/nope", http.StatusNotFound, ""},
		{"static asset passes through to 404", http.MethodGet, "/favicon.ico", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(h, tc.method, tc.target, nil)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rr.Code, rr.Body.String())
			}
			if tc.location != "" && rr.Header().Get("Location") != tc.location {
				t.Fatalf("expected location %q, got %q", tc.location, rr.Header().Get("Location"))
			}
		})
	}
}

func TestRouterSignedInUser(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Email: "ada@example.com", Role: domain.RoleUser, Status: domain.StatusActive}
	h := newTestRouter(t, u, false)

	rr := serve(h, http.MethodGet, "/fr/sign-up", nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/fr/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = serve(h, http.MethodGet, "/api/v1/rankings", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "gpt-4o") {
		t.Fatalf("expected rankings, got %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(h, http.MethodPost, "/api/v1/conversations", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected csrf rejection, got %d", rr.Code)
	}

	rr = serve(h, http.MethodGet, "/api/v1/admin/users", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected admin gate, got %d", rr.Code)
	}
}

func TestRouterBotProtection(t *testing.T) {
	h := newTestRouter(t, nil, true)

	rr := serve(h, http.MethodGet, "/", func(r *http.Request) { r.Header.Set("User-Agent", "python-requests/2.31") })
	if rr.Code != http.StatusForbidden || strings.TrimSpace(rr.Body.String()) != `{"error":"Forbidden"}` {
		t.Fatalf("expected bot denial, got %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(h, http.MethodGet, "/", func(r *http.Request) {
		r.Header.Set("User-Agent", "python-requests/2.31")
		r.Header.Set(middleware.ProtectionBypassHeader, "monitor-token")
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected bypass to reach the page, got %d", rr.Code)
	}
}

func TestRouterAuthRateLimit(t *testing.T) {
	h := newTestRouter(t, nil, false)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(h, http.MethodGet, "/api/auth/nope", func(r *http.Request) { r.RemoteAddr = "203.0.113.9:1234" })
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}
