package domain

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrAdminRequired = errors.New("admin role required")
	ErrRoleRequired  = errors.New("required role missing")
)

func ParseRole(v string) (Role, error) {
	r := Role(v)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, v)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleUser:
		return "User"
	default:
		return string(r)
	}
}

func IsAdmin(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

func HasRole(u *User, role Role) bool {
	return u != nil && u.Role == role
}

func RequireAdmin(u *User) error {
	if !IsAdmin(u) {
		return ErrAdminRequired
	}
	return nil
}

func RequireRole(u *User, role Role) error {
	if !HasRole(u, role) {
		return fmt.Errorf("%w: %s", ErrRoleRequired, role)
	}
	return nil
}

// CanPerformAdminActions requires both the admin role and an active account.
func CanPerformAdminActions(u *User) bool {
	return IsAdmin(u) && IsActive(u)
}
