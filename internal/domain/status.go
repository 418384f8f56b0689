package domain

import (
	"errors"
	"fmt"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
	StatusPending  UserStatus = "pending"
)

var (
	ErrInvalidStatus = errors.New("invalid user status")
	ErrUserNotActive = errors.New("user is not active")
)

func ParseUserStatus(v string) (UserStatus, error) {
	s := UserStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusPending:
		return true
	default:
		return false
	}
}

func (s UserStatus) DisplayName() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusDisabled:
		return "Disabled"
	case StatusPending:
		return "Pending"
	default:
		return string(s)
	}
}

func (s UserStatus) Description() string {
	switch s {
	case StatusActive:
		return "Account is active and can access all features"
	case StatusDisabled:
		return "Account has been disabled by an administrator"
	case StatusPending:
		return "Account is pending activation or approval"
	default:
		return "Unknown account status"
	}
}

func IsActive(u *User) bool {
	return u != nil && u.Status == StatusActive
}

func RequireActive(u *User) error {
	if !IsActive(u) {
		return ErrUserNotActive
	}
	return nil
}

// CanSignIn reports whether the status permits creating a session.
func CanSignIn(s UserStatus) bool {
	return s == StatusActive
}
