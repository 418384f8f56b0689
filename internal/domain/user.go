package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username  *string    `gorm:"uniqueIndex;size:64" json:"username,omitempty"`
	FullName  string     `gorm:"size:255" json:"full_name"`
	AvatarURL string     `gorm:"size:1024" json:"avatar_url"`
	Role      Role       `gorm:"size:16;not null;default:user" json:"role"`
	Status    UserStatus `gorm:"size:16;not null;default:active;index:idx_users_status" json:"status"`
	GitHubID  *string    `gorm:"column:github_id;uniqueIndex;size:64" json:"github_id,omitempty"`
	GoogleID  *string    `gorm:"column:google_id;uniqueIndex;size:64" json:"google_id,omitempty"`
	InviterID *uuid.UUID `gorm:"type:uuid;index" json:"inviter_id,omitempty"`
	Inviter   *User      `gorm:"foreignKey:InviterID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// DisplayName prefers the full name, then the username, then the email.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}
