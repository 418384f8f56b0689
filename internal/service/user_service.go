package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
)

var (
	ErrInvalidUsername = errors.New("username must be 3-32 letters, digits, '_' or '-'")
	ErrInvalidFullName = errors.New("full name must be at most 255 characters")
	ErrSelfModify      = errors.New("administrators cannot change their own role or status")
	ErrLastAdmin       = errors.New("cannot demote the last administrator")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// ProfileUpdate carries optional profile fields. A nil pointer leaves the
// field alone; an empty username clears it.
type ProfileUpdate struct {
	FullName *string
	Username *string
}

type UserService struct {
	users    repository.UserRepository
	sessions *SessionService
	avatars  AvatarStore
	logger   *slog.Logger
}

func NewUserService(users repository.UserRepository, sessions *SessionService, avatars AvatarStore, logger *slog.Logger) *UserService {
	if avatars == nil {
		avatars = DisabledAvatarStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, sessions: sessions, avatars: avatars, logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) ListPaged(ctx context.Context, req repository.PageRequest, filter repository.UserListFilter) (repository.PageResult[domain.User], error) {
	return s.users.ListPaged(ctx, req, filter)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	updates := map[string]any{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if len(name) > 255 {
			return nil, ErrInvalidFullName
		}
		updates["full_name"] = name
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		switch {
		case username == "":
			updates["username"] = nil
		case !usernameRe.MatchString(username):
			observability.RecordUserProfileEvent(ctx, "update", "invalid")
			return nil, ErrInvalidUsername
		default:
			updates["username"] = username
		}
	}
	if len(updates) > 0 {
		if err := s.users.Update(ctx, id, updates); err != nil {
			observability.RecordUserProfileEvent(ctx, "update", "error")
			return nil, err
		}
	}
	observability.RecordUserProfileEvent(ctx, "update", "success")
	return s.users.FindByID(ctx, id)
}

// ReplaceAvatar uploads the new image, points the user at it and then
// removes the previous object. A failed cleanup is only logged.
func (s *UserService) ReplaceAvatar(ctx context.Context, id uuid.UUID, file io.Reader, size int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := s.avatars.Upload(ctx, id, file, size)
	if err != nil {
		observability.RecordUserProfileEvent(ctx, "avatar_upload", "error")
		return nil, err
	}
	avatarURL, err := s.avatars.URL(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, id, map[string]any{"avatar_url": avatarURL}); err != nil {
		return nil, err
	}
	if old := AvatarKeyFromURL(user.AvatarURL); old != "" {
		if err := s.avatars.Delete(ctx, id, old); err != nil {
			s.logger.WarnContext(ctx, "previous avatar cleanup failed", "user_id", id, "error", err)
		}
	}
	observability.RecordUserProfileEvent(ctx, "avatar_upload", "success")
	return s.users.FindByID(ctx, id)
}

// RemoveAvatar clears the avatar. Only objects this store owns are deleted;
// provider-hosted avatar URLs are simply dropped.
func (s *UserService) RemoveAvatar(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.AvatarURL == "" {
		return user, nil
	}
	if err := s.users.Update(ctx, id, map[string]any{"avatar_url": ""}); err != nil {
		return nil, err
	}
	if key := AvatarKeyFromURL(user.AvatarURL); key != "" {
		if err := s.avatars.Delete(ctx, id, key); err != nil {
			s.logger.WarnContext(ctx, "avatar object delete failed", "user_id", id, "error", err)
		}
	}
	observability.RecordUserProfileEvent(ctx, "avatar_delete", "success")
	return s.users.FindByID(ctx, id)
}

// SetStatus changes a user's status. Leaving the active state revokes
// every session the user holds.
func (s *UserService) SetStatus(ctx context.Context, actorID, targetID uuid.UUID, status domain.UserStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if actorID == targetID {
		return nil, ErrSelfModify
	}
	if err := s.users.Update(ctx, targetID, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	if status != domain.StatusActive && s.sessions != nil {
		if err := s.sessions.RevokeAllForUser(ctx, targetID); err != nil {
			return nil, err
		}
	}
	s.logger.InfoContext(ctx, "user status changed", "actor_id", actorID, "user_id", targetID, "status", status)
	return s.users.FindByID(ctx, targetID)
}

func (s *UserService) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if actorID == targetID {
		return nil, ErrSelfModify
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}
	if target.Role == domain.RoleAdmin {
		admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}
	if err := s.users.Update(ctx, targetID, map[string]any{"role": role}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user role changed", "actor_id", actorID, "user_id", targetID, "role", role)
	return s.users.FindByID(ctx, targetID)
}
