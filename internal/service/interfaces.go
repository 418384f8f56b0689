package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/repository"
)

// The HTTP layer depends on these rather than the concrete services.

type AuthServiceInterface interface {
	SignUpEmail(ctx context.Context, in SignUpInput, meta RequestMeta) (*AuthResult, error)
	SignInEmail(ctx context.Context, email, password string, meta RequestMeta) (*AuthResult, error)
	SocialSignInURL(ctx context.Context, provider, callbackURL string) (string, string, error)
	HandleCallback(ctx context.Context, provider, code, stateParam, stateCookie string, meta RequestMeta) (*AuthResult, error)
	SignOut(ctx context.Context, cookieValue string) error
	GetSession(ctx context.Context, cookieValue string) (*ActiveSession, error)
}

type SessionValidator interface {
	Validate(ctx context.Context, cookieValue string) (*ActiveSession, error)
	ReissueCookie(active *ActiveSession, cookieValue string) (string, error)
}

type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*domain.User, error)
	ReplaceAvatar(ctx context.Context, id uuid.UUID, file io.Reader, size int64) (*domain.User, error)
	RemoveAvatar(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListPaged(ctx context.Context, req repository.PageRequest, filter repository.UserListFilter) (repository.PageResult[domain.User], error)
	SetStatus(ctx context.Context, actorID, targetID uuid.UUID, status domain.UserStatus) (*domain.User, error)
	SetRole(ctx context.Context, actorID, targetID uuid.UUID, role domain.Role) (*domain.User, error)
}

type ConversationServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*domain.Conversation, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Conversation, error)
	List(ctx context.Context, userID uuid.UUID, req repository.PageRequest) (repository.PageResult[domain.Conversation], error)
	AddMessage(ctx context.Context, userID, conversationID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error)
	AddResponse(ctx context.Context, userID, messageID uuid.UUID, in domain.ModelResponse) (*domain.ModelResponse, error)
}

type VoteServiceInterface interface {
	Cast(ctx context.Context, userID, responseID uuid.UUID, voteType domain.VoteType) (*domain.UserVote, error)
	ListForMessages(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) ([]domain.UserVote, error)
	Rankings(ctx context.Context, limit int) ([]domain.ModelRanking, error)
}

type APIKeyServiceInterface interface {
	Put(ctx context.Context, userID uuid.UUID, provider, key string) (*MaskedAPIKey, error)
	List(ctx context.Context, userID uuid.UUID) ([]MaskedAPIKey, error)
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}

type PreferencesServiceInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserPreferences, error)
	Update(ctx context.Context, userID uuid.UUID, in PreferencesUpdate) (*domain.UserPreferences, error)
}

var (
	_ AuthServiceInterface = (*AuthService)(nil)
	_ SessionValidator     = (*SessionService)(nil)
	_ UserServiceInterface = (*UserService)(nil)

	_ ConversationServiceInterface = (*ConversationService)(nil)
	_ VoteServiceInterface         = (*VoteService)(nil)
	_ APIKeyServiceInterface       = (*APIKeyService)(nil)
	_ PreferencesServiceInterface  = (*PreferencesService)(nil)
)
