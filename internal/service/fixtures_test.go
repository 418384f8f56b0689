package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/lmring/lmring/internal/auth"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/repository"
	repogomock "github.com/lmring/lmring/internal/repository/gomock"
)

// In-memory repository state, wired behind gomock mocks with DoAndReturn so
// tests can assert on both calls and resulting state.

type userState struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*domain.User
	creds map[uuid.UUID]string
}

func newUserState() *userState {
	return &userState{byID: map[uuid.UUID]*domain.User{}, creds: map[uuid.UUID]string{}}
}

func (s *userState) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userState) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *userState) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = repository.NormalizeEmail(user.Email)
	for _, u := range s.byID {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Status == "" {
		user.Status = domain.StatusActive
	}
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *userState) CreateWithPassword(ctx context.Context, user *domain.User, hash string) error {
	if err := s.Create(ctx, user); err != nil {
		return err
	}
	s.mu.Lock()
	s.creds[user.ID] = hash
	s.mu.Unlock()
	return nil
}

func (s *userState) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	for k, v := range updates {
		switch k {
		case "role":
			u.Role = v.(domain.Role)
		case "status":
			u.Status = v.(domain.UserStatus)
		case "full_name":
			u.FullName = v.(string)
		case "avatar_url":
			u.AvatarURL = v.(string)
		case "username":
			if v == nil {
				u.Username = nil
			} else {
				name := v.(string)
				u.Username = &name
			}
		case "github_id":
			id := v.(string)
			u.GitHubID = &id
		case "google_id":
			id := v.(string)
			u.GoogleID = &id
		}
	}
	return nil
}

func (s *userState) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *userState) FindCredential(_ context.Context, userID uuid.UUID) (*domain.LocalCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.creds[userID]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}
	return &domain.LocalCredential{UserID: userID, PasswordHash: hash}, nil
}

type sessionState struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Session
}

func newSessionState() *sessionState {
	return &sessionState{byID: map[uuid.UUID]*domain.Session{}}
}

func (s *sessionState) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	cp := *sess
	s.byID[sess.ID] = &cp
	return nil
}

func (s *sessionState) FindByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *sessionState) ExtendExpiry(_ context.Context, id uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	sess.ExpiresAt = expiresAt
	return nil
}

func (s *sessionState) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *sessionState) DeleteByUserID(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, sess := range s.byID {
		if sess.UserID == userID {
			ids = append(ids, id)
			delete(s.byID, id)
		}
	}
	return ids, nil
}

func (s *sessionState) CleanupExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.byID {
		if sess.Expired(now) {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

func (s *sessionState) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type oauthAccountState struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.OAuthAccount
}

func newOAuthAccountState() *oauthAccountState {
	return &oauthAccountState{accounts: map[uuid.UUID]*domain.OAuthAccount{}}
}

func (s *oauthAccountState) FindByProvider(_ context.Context, provider, subject string) (*domain.OAuthAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Provider == provider && a.ProviderUserID == subject {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrOAuthAccountNotFound
}

func (s *oauthAccountState) Create(_ context.Context, a *domain.OAuthAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *oauthAccountState) UpdateRefreshToken(_ context.Context, id uuid.UUID, encrypted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrOAuthAccountNotFound
	}
	a.EncryptedRefreshToken = encrypted
	return nil
}

// tNop lets fixtures build controllers outside a *testing.T.
type tNop struct{}

func (tNop) Errorf(string, ...any) {}
func (tNop) Fatalf(string, ...any) {}
func (tNop) Helper()               {}

func mockUserRepository(ctrl *gomock.Controller, state *userState) *repogomock.MockUserRepository {
	m := repogomock.NewMockUserRepository(ctrl)
	m.EXPECT().FindByID(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.FindByID)
	m.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.FindByEmail)
	m.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Create)
	m.EXPECT().CreateWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.CreateWithPassword)
	m.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Update)
	m.EXPECT().CountByRole(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.CountByRole)
	return m
}

func mockCredentialRepository(ctrl *gomock.Controller, state *userState) *repogomock.MockLocalCredentialRepository {
	m := repogomock.NewMockLocalCredentialRepository(ctrl)
	m.EXPECT().FindByUserID(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.FindCredential)
	return m
}

func mockSessionRepository(ctrl *gomock.Controller, state *sessionState) *repogomock.MockSessionRepository {
	m := repogomock.NewMockSessionRepository(ctrl)
	m.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Create)
	m.EXPECT().FindByID(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.FindByID)
	m.EXPECT().ExtendExpiry(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.ExtendExpiry)
	m.EXPECT().DeleteByID(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.DeleteByID)
	m.EXPECT().DeleteByUserID(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.DeleteByUserID)
	m.EXPECT().CleanupExpired(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.CleanupExpired)
	return m
}

func mockOAuthRepository(ctrl *gomock.Controller, state *oauthAccountState) *repogomock.MockOAuthRepository {
	m := repogomock.NewMockOAuthRepository(ctrl)
	m.EXPECT().FindByProvider(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.FindByProvider)
	m.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.Create)
	m.EXPECT().UpdateRefreshToken(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(state.UpdateRefreshToken)
	return m
}

func sessionPolicyForTest() auth.SessionPolicy {
	return auth.SessionPolicy{ExpiresIn: 7 * 24 * time.Hour, UpdateAge: 24 * time.Hour, FreshAge: 10 * time.Minute}
}
