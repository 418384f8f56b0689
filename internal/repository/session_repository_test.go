package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	db := newRepositoryDBForTest(t)
	users := NewUserRepository(db)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := createUserForTest(t, users, "s@example.com")
	now := time.Now().UTC()

	live := &domain.Session{UserID: u.ID, TokenHash: "hash-live", ExpiresAt: now.Add(time.Hour)}
	other := &domain.Session{UserID: u.ID, TokenHash: "hash-other", ExpiresAt: now.Add(time.Hour)}
	expired := &domain.Session{UserID: u.ID, TokenHash: "hash-expired", ExpiresAt: now.Add(-time.Minute)}
	for _, s := range []*domain.Session{live, other, expired} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	if err := repo.Create(ctx, &domain.Session{UserID: u.ID, TokenHash: "hash-live", ExpiresAt: now}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for reused hash, got %v", err)
	}

	got, err := repo.FindByID(ctx, live.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.TokenHash != "hash-live" {
		t.Fatalf("unexpected session %+v", got)
	}

	extended := now.Add(48 * time.Hour)
	if err := repo.ExtendExpiry(ctx, live.ID, extended); err != nil {
		t.Fatalf("extend: %v", err)
	}
	got, _ = repo.FindByID(ctx, live.ID)
	if got.ExpiresAt.Sub(extended).Abs() > time.Second {
		t.Fatalf("expiry not extended: %v", got.ExpiresAt)
	}

	removed, err := repo.CleanupExpired(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("cleanup removed=%d err=%v", removed, err)
	}

	ids, err := repo.DeleteByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 revoked sessions, got %d", len(ids))
	}
	if _, err := repo.FindByID(ctx, live.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.ExtendExpiry(ctx, uuid.New(), now); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on extend, got %v", err)
	}
}

func TestOAuthRepositoryProviderSubjectIsUnique(t *testing.T) {
	db := newRepositoryDBForTest(t)
	users := NewUserRepository(db)
	repo := NewOAuthRepository(db)
	ctx := context.Background()
	u := createUserForTest(t, users, "o@example.com")

	acct := &domain.OAuthAccount{UserID: u.ID, Provider: "github", ProviderUserID: "42", Email: "o@example.com"}
	if err := repo.Create(ctx, acct); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &domain.OAuthAccount{UserID: u.ID, Provider: "github", ProviderUserID: "42"}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if err := repo.UpdateRefreshToken(ctx, acct.ID, "enc"); err != nil {
		t.Fatalf("update refresh token: %v", err)
	}
	got, err := repo.FindByProvider(ctx, "github", "42")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.EncryptedRefreshToken != "enc" {
		t.Fatalf("refresh token not stored: %+v", got)
	}
	if _, err := repo.FindByProvider(ctx, "google", "42"); !errors.Is(err, ErrOAuthAccountNotFound) {
		t.Fatalf("expected ErrOAuthAccountNotFound, got %v", err)
	}
	list, err := repo.ListByUserID(ctx, u.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%v err=%v", list, err)
	}
}
