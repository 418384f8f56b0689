package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/security"
	"github.com/lmring/lmring/internal/service"
)

type fakeValidator struct {
	active   *service.ActiveSession
	err      error
	reissued string
}

func (f *fakeValidator) Validate(context.Context, string) (*service.ActiveSession, error) {
	return f.active, f.err
}

func (f *fakeValidator) ReissueCookie(*service.ActiveSession, string) (string, error) {
	return f.reissued, nil
}

func TestCookieSessionResolver(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if _, err := NewCookieSessionResolver(&fakeValidator{}).Resolve(req); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("expected missing cookie to be session expired, got %v", err)
	}

	user := &domain.User{ID: uuid.New()}
	expires := time.Now().Add(time.Hour).UTC()
	v := &fakeValidator{
		active:   &service.ActiveSession{User: user, Session: &domain.Session{ExpiresAt: expires}},
		reissued: "fresh",
	}
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "old"})

	res, err := NewCookieSessionResolver(v).Resolve(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.User != user || res.ReissuedCookie != "" || !res.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected resolution %+v", res)
	}

	v.active.Extended = true
	res, err = NewCookieSessionResolver(v).Resolve(req)
	if err != nil || res.ReissuedCookie != "fresh" {
		t.Fatalf("expected reissued cookie, got %+v err=%v", res, err)
	}

	v.err = auth.ErrInvalidToken
	if _, err := NewCookieSessionResolver(v).Resolve(req); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected validator error, got %v", err)
	}
}
