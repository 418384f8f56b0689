package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/http/middleware"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/service"
)

var errNotImplemented = errors.New("not implemented")

type stubAuthSvc struct {
	signUpFn   func(in service.SignUpInput) (*service.AuthResult, error)
	signInFn   func(email, password string) (*service.AuthResult, error)
	socialFn   func(provider, callbackURL string) (string, string, error)
	callbackFn func(provider, code, stateParam, stateCookie string) (*service.AuthResult, error)
	signOutFn  func(cookie string) error
	sessionFn  func(cookie string) (*service.ActiveSession, error)
}

func (s *stubAuthSvc) SignUpEmail(_ context.Context, in service.SignUpInput, _ service.RequestMeta) (*service.AuthResult, error) {
	if s.signUpFn != nil {
		return s.signUpFn(in)
	}
	return nil, errNotImplemented
}

func (s *stubAuthSvc) SignInEmail(_ context.Context, email, password string, _ service.RequestMeta) (*service.AuthResult, error) {
	if s.signInFn != nil {
		return s.signInFn(email, password)
	}
	return nil, errNotImplemented
}

func (s *stubAuthSvc) SocialSignInURL(_ context.Context, provider, callbackURL string) (string, string, error) {
	if s.socialFn != nil {
		return s.socialFn(provider, callbackURL)
	}
	return "", "", errNotImplemented
}

func (s *stubAuthSvc) HandleCallback(_ context.Context, provider, code, stateParam, stateCookie string, _ service.RequestMeta) (*service.AuthResult, error) {
	if s.callbackFn != nil {
		return s.callbackFn(provider, code, stateParam, stateCookie)
	}
	return nil, errNotImplemented
}

func (s *stubAuthSvc) SignOut(_ context.Context, cookie string) error {
	if s.signOutFn != nil {
		return s.signOutFn(cookie)
	}
	return nil
}

func (s *stubAuthSvc) GetSession(_ context.Context, cookie string) (*service.ActiveSession, error) {
	if s.sessionFn != nil {
		return s.sessionFn(cookie)
	}
	return nil, errNotImplemented
}

type stubUserSvc struct {
	users     map[uuid.UUID]*domain.User
	updateFn  func(id uuid.UUID, in service.ProfileUpdate) (*domain.User, error)
	avatarFn  func(id uuid.UUID, body []byte) (*domain.User, error)
	statusFn  func(actor, target uuid.UUID, st domain.UserStatus) (*domain.User, error)
	roleFn    func(actor, target uuid.UUID, role domain.Role) (*domain.User, error)
	listFn    func(req repository.PageRequest, f repository.UserListFilter) (repository.PageResult[domain.User], error)
	removedID uuid.UUID
}

func (s *stubUserSvc) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUserSvc) UpdateProfile(_ context.Context, id uuid.UUID, in service.ProfileUpdate) (*domain.User, error) {
	if s.updateFn != nil {
		return s.updateFn(id, in)
	}
	return nil, errNotImplemented
}

func (s *stubUserSvc) ReplaceAvatar(_ context.Context, id uuid.UUID, file io.Reader, _ int64) (*domain.User, error) {
	body, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if s.avatarFn != nil {
		return s.avatarFn(id, body)
	}
	return nil, errNotImplemented
}

func (s *stubUserSvc) RemoveAvatar(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.removedID = id
	return &domain.User{ID: id}, nil
}

func (s *stubUserSvc) ListPaged(_ context.Context, req repository.PageRequest, f repository.UserListFilter) (repository.PageResult[domain.User], error) {
	if s.listFn != nil {
		return s.listFn(req, f)
	}
	return repository.PageResult[domain.User]{}, errNotImplemented
}

func (s *stubUserSvc) SetStatus(_ context.Context, actor, target uuid.UUID, st domain.UserStatus) (*domain.User, error) {
	if s.statusFn != nil {
		return s.statusFn(actor, target, st)
	}
	return nil, errNotImplemented
}

func (s *stubUserSvc) SetRole(_ context.Context, actor, target uuid.UUID, role domain.Role) (*domain.User, error) {
	if s.roleFn != nil {
		return s.roleFn(actor, target, role)
	}
	return nil, errNotImplemented
}

type stubVoteSvc struct {
	castFn   func(userID, responseID uuid.UUID, vt domain.VoteType) (*domain.UserVote, error)
	votes    []domain.UserVote
	rankings []domain.ModelRanking
	limit    int
}

func (s *stubVoteSvc) Cast(_ context.Context, userID, responseID uuid.UUID, vt domain.VoteType) (*domain.UserVote, error) {
	if s.castFn != nil {
		return s.castFn(userID, responseID, vt)
	}
	return nil, errNotImplemented
}

func (s *stubVoteSvc) ListForMessages(context.Context, uuid.UUID, []uuid.UUID) ([]domain.UserVote, error) {
	return s.votes, nil
}

func (s *stubVoteSvc) Rankings(_ context.Context, limit int) ([]domain.ModelRanking, error) {
	s.limit = limit
	return s.rankings, nil
}

func testUser(role domain.Role) *domain.User {
	return &domain.User{ID: uuid.New(), Email: "ada@example.com", FullName: "Ada", Role: role, Status: domain.StatusActive}
}

func withUser(r *http.Request, u *domain.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, val)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rr)
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func httptestBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
