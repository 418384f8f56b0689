package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocalCredential holds the email/password secret for a user. Users created
// through OAuth only have no row here.
type LocalCredential struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User         User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PasswordHash string    `gorm:"size:1024;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
