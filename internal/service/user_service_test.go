package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/repository"
	repogomock "github.com/lmring/lmring/internal/repository/gomock"
)

type userServiceFixture struct {
	svc      *UserService
	users    *userState
	sessions *sessionState
	avatars  *fakeAvatarStore
}

type fakeAvatarStore struct {
	uploaded []string
	deleted  []string
}

func (f *fakeAvatarStore) Upload(_ context.Context, userID uuid.UUID, file io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	key := "avatars/" + userID.String() + "/" + uuid.NewString() + ".png"
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeAvatarStore) Delete(_ context.Context, _ uuid.UUID, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeAvatarStore) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/lmring/" + key, nil
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := newUserState()
	sessions := newSessionState()
	userRepo := mockUserRepository(ctrl, users)
	sessionSvc := NewSessionService(mockSessionRepository(ctrl, sessions), userRepo, nil, nil, 0, sessionPolicyForTest(), nil)
	avatars := &fakeAvatarStore{}
	return &userServiceFixture{
		svc:      NewUserService(userRepo, sessionSvc, avatars, nil),
		users:    users,
		sessions: sessions,
		avatars:  avatars,
	}
}

func (fx *userServiceFixture) seed(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: role}
	if err := fx.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}

func TestUserServiceUpdateProfile(t *testing.T) {
	fx := newUserServiceFixture(t)
	ctx := context.Background()
	u := fx.seed(t, "member@example.com", domain.RoleUser)

	name, username := "  Ada Lovelace ", "ada_l"
	got, err := fx.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{FullName: &name, Username: &username})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FullName != "Ada Lovelace" || got.Username == nil || *got.Username != "ada_l" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	bad := "a!"
	if _, err := fx.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Username: &bad}); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	empty := ""
	got, err = fx.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Username: &empty})
	if err != nil || got.Username != nil {
		t.Fatalf("expected username cleared, got %+v err=%v", got.Username, err)
	}
}

func TestUserServiceUpdateProfilePropagatesUsernameConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().Update(gomock.Any(), id, gomock.Any()).Return(repository.ErrUsernameTaken)
	svc := NewUserService(repo, nil, nil, nil)

	taken := "taken"
	if _, err := svc.UpdateProfile(context.Background(), id, ProfileUpdate{Username: &taken}); !errors.Is(err, repository.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserServiceReplaceAvatarRemovesPrevious(t *testing.T) {
	fx := newUserServiceFixture(t)
	ctx := context.Background()
	u := fx.seed(t, "member@example.com", domain.RoleUser)

	first, err := fx.svc.ReplaceAvatar(ctx, u.ID, bytes.NewReader([]byte("png")), 3)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := fx.svc.ReplaceAvatar(ctx, u.ID, bytes.NewReader([]byte("png")), 3); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if len(fx.avatars.deleted) != 1 || fx.avatars.deleted[0] != AvatarKeyFromURL(first.AvatarURL) {
		t.Fatalf("expected first avatar deleted, got %v", fx.avatars.deleted)
	}
}

func TestUserServiceRemoveAvatar(t *testing.T) {
	fx := newUserServiceFixture(t)
	ctx := context.Background()
	u := fx.seed(t, "member@example.com", domain.RoleUser)

	withAvatar, err := fx.svc.ReplaceAvatar(ctx, u.ID, bytes.NewReader([]byte("png")), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	got, err := fx.svc.RemoveAvatar(ctx, u.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got.AvatarURL != "" {
		t.Fatalf("expected avatar cleared, got %q", got.AvatarURL)
	}
	if len(fx.avatars.deleted) != 1 || fx.avatars.deleted[0] != AvatarKeyFromURL(withAvatar.AvatarURL) {
		t.Fatalf("expected stored object deleted, got %v", fx.avatars.deleted)
	}

	if err := fx.users.Update(ctx, u.ID, map[string]any{"avatar_url": "https://avatars.githubusercontent.com/u/1"}); err != nil {
		t.Fatalf("set provider avatar: %v", err)
	}
	if _, err := fx.svc.RemoveAvatar(ctx, u.ID); err != nil {
		t.Fatalf("remove provider avatar: %v", err)
	}
	if len(fx.avatars.deleted) != 1 {
		t.Fatalf("provider avatars must not touch the object store, got %v", fx.avatars.deleted)
	}
}

func TestUserServiceSetStatusRevokesSessions(t *testing.T) {
	fx := newUserServiceFixture(t)
	ctx := context.Background()
	admin := fx.seed(t, "admin@example.com", domain.RoleAdmin)
	member := fx.seed(t, "member@example.com", domain.RoleUser)
	_ = fx.sessions.Create(ctx, &domain.Session{UserID: member.ID, TokenHash: "a"})
	_ = fx.sessions.Create(ctx, &domain.Session{UserID: admin.ID, TokenHash: "b"})

	got, err := fx.svc.SetStatus(ctx, admin.ID, member.ID, domain.StatusDisabled)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if got.Status != domain.StatusDisabled {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if fx.sessions.count() != 1 {
		t.Fatalf("expected only the admin session to remain, got %d", fx.sessions.count())
	}

	if _, err := fx.svc.SetStatus(ctx, admin.ID, admin.ID, domain.StatusDisabled); !errors.Is(err, ErrSelfModify) {
		t.Fatalf("expected ErrSelfModify, got %v", err)
	}
	if _, err := fx.svc.SetStatus(ctx, admin.ID, member.ID, domain.UserStatus("banned")); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUserServiceSetRoleGuardsLastAdmin(t *testing.T) {
	fx := newUserServiceFixture(t)
	ctx := context.Background()
	admin := fx.seed(t, "admin@example.com", domain.RoleAdmin)
	member := fx.seed(t, "member@example.com", domain.RoleUser)

	promoted, err := fx.svc.SetRole(ctx, admin.ID, member.ID, domain.RoleAdmin)
	if err != nil || promoted.Role != domain.RoleAdmin {
		t.Fatalf("promote: %+v %v", promoted, err)
	}
	if _, err := fx.svc.SetRole(ctx, member.ID, admin.ID, domain.RoleUser); err != nil {
		t.Fatalf("demote with two admins: %v", err)
	}
	if _, err := fx.svc.SetRole(ctx, admin.ID, member.ID, domain.RoleUser); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
}
