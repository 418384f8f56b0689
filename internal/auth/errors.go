package auth

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeUserDisabled         Code = "USER_DISABLED"
	CodeUserPending          Code = "USER_PENDING"
	CodeUserStatusUnknown    Code = "USER_STATUS_UNKNOWN"
	CodeEmailNotVerified     Code = "EMAIL_NOT_VERIFIED"
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeOAuthError           Code = "OAUTH_ERROR"
	CodeAccountLinkingFailed Code = "ACCOUNT_LINKING_FAILED"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeMissingCredentials   Code = "MISSING_CREDENTIALS"
	CodePasswordTooShort     Code = "PASSWORD_TOO_SHORT"
	CodePasswordTooLong      Code = "PASSWORD_TOO_LONG"
	CodeEmailAlreadyExists   Code = "EMAIL_ALREADY_EXISTS"
	CodeConfigurationError   Code = "CONFIGURATION_ERROR"
	CodeProviderNotEnabled   Code = "PROVIDER_NOT_ENABLED"
	CodeTooManyAttempts      Code = "TOO_MANY_ATTEMPTS"
)

var defaults = map[Code]struct {
	status  int
	message string
}{
	CodeInvalidCredentials:   {http.StatusUnauthorized, "Invalid email or password"},
	CodeUserDisabled:         {http.StatusForbidden, "Your account has been disabled. Please contact support."},
	CodeUserPending:          {http.StatusForbidden, "Your account is pending activation. Please check your email."},
	CodeUserStatusUnknown:    {http.StatusForbidden, "Your account status does not allow sign-in."},
	CodeEmailNotVerified:     {http.StatusForbidden, "Please verify your email address before signing in."},
	CodeSessionExpired:       {http.StatusUnauthorized, "Your session has expired. Please sign in again."},
	CodeOAuthError:           {http.StatusBadRequest, "OAuth authentication failed. Please try again."},
	CodeAccountLinkingFailed: {http.StatusBadRequest, "Failed to link account. Please try again."},
	CodeInvalidToken:         {http.StatusUnauthorized, "Invalid or expired token"},
	CodeMissingCredentials:   {http.StatusBadRequest, "Email and password are required"},
	CodePasswordTooShort:     {http.StatusBadRequest, "Password must be at least 8 characters long"},
	CodePasswordTooLong:      {http.StatusBadRequest, "Password must be less than 128 characters"},
	CodeEmailAlreadyExists:   {http.StatusConflict, "An account with this email already exists"},
	CodeConfigurationError:   {http.StatusInternalServerError, "Authentication service configuration error"},
	CodeProviderNotEnabled:   {http.StatusBadRequest, "This sign-in provider is not enabled"},
	CodeTooManyAttempts:      {http.StatusTooManyRequests, "Too many sign-in attempts. Please try again later."},
}

// Error is a user-facing authentication failure. Two errors are considered
// equal by errors.Is when their codes match.
type Error struct {
	Code    Code
	Message string
	Status  int
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewError builds an Error for code. An empty message uses the default one.
func NewError(code Code, message string) *Error {
	d, ok := defaults[code]
	if !ok {
		d = defaults[CodeConfigurationError]
	}
	if message == "" {
		message = d.message
	}
	return &Error{Code: code, Message: message, Status: d.status}
}

func StatusFor(code Code) int {
	if d, ok := defaults[code]; ok {
		return d.status
	}
	return http.StatusInternalServerError
}

func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	ErrInvalidCredentials   = NewError(CodeInvalidCredentials, "")
	ErrUserDisabled         = NewError(CodeUserDisabled, "")
	ErrUserPending          = NewError(CodeUserPending, "")
	ErrUserStatusUnknown    = NewError(CodeUserStatusUnknown, "")
	ErrSessionExpired       = NewError(CodeSessionExpired, "")
	ErrOAuth                = NewError(CodeOAuthError, "")
	ErrAccountLinkingFailed = NewError(CodeAccountLinkingFailed, "")
	ErrInvalidToken         = NewError(CodeInvalidToken, "")
	ErrMissingCredentials   = NewError(CodeMissingCredentials, "")
	ErrPasswordTooShort     = NewError(CodePasswordTooShort, "")
	ErrPasswordTooLong      = NewError(CodePasswordTooLong, "")
	ErrEmailAlreadyExists   = NewError(CodeEmailAlreadyExists, "")
	ErrProviderNotEnabled   = NewError(CodeProviderNotEnabled, "")
	ErrTooManyAttempts      = NewError(CodeTooManyAttempts, "")
)
