package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
)

const (
	PathSignInEmail  = "/sign-in/email"
	PathSignInSocial = "/sign-in/social"
	PathSignUpEmail  = "/sign-up/email"
)

// StatusHook gates every session-creating request on the user's stored
// status. It keeps no state between calls.
type StatusHook struct {
	logger *slog.Logger
}

func NewStatusHook(logger *slog.Logger) *StatusHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHook{logger: logger}
}

func IsSignInPath(path string) bool {
	switch path {
	case PathSignInEmail, PathSignInSocial, PathSignUpEmail:
		return true
	}
	return strings.Contains(path, "/callback")
}

func providerForPath(path string) string {
	if strings.Contains(path, "social") || strings.Contains(path, "/callback") {
		return "oauth"
	}
	return "email"
}

func (h *StatusHook) BeforeSignIn(ctx context.Context, path, method string) {
	if IsSignInPath(path) {
		h.logger.DebugContext(ctx, "authentication attempt started", "path", path, "method", method)
	}
}

// AfterSignIn returns nil only for active users. Unknown statuses are denied.
func (h *StatusHook) AfterSignIn(ctx context.Context, path string, user *domain.User) error {
	if !IsSignInPath(path) {
		return nil
	}
	if user == nil {
		h.logger.DebugContext(ctx, "authentication attempt completed without user context", "path", path)
		return nil
	}
	h.logger.DebugContext(ctx, "user authentication successful, checking status",
		"user_id", user.ID, "status", user.Status, "role", user.Role)

	switch user.Status {
	case domain.StatusActive:
		h.logger.InfoContext(ctx, "user signed in successfully",
			"user_id", user.ID, "role", user.Role, "status", user.Status, "provider", providerForPath(path))
		return nil
	case domain.StatusDisabled:
		h.reject(ctx, "disabled user attempted to sign in", user, CodeUserDisabled)
		return ErrUserDisabled
	case domain.StatusPending:
		h.reject(ctx, "pending user attempted to sign in", user, CodeUserPending)
		return ErrUserPending
	default:
		h.reject(ctx, "user with unknown status attempted to sign in", user, CodeUserStatusUnknown)
		return ErrUserStatusUnknown
	}
}

func (h *StatusHook) reject(ctx context.Context, msg string, user *domain.User, code Code) {
	h.logger.WarnContext(ctx, msg, "user_id", user.ID, "status", user.Status, "error_code", code)
	observability.RecordStatusGateRejection(ctx, string(user.Status))
}
