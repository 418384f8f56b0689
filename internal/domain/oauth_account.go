package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OAuthAccount struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User                  User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Provider              string    `gorm:"size:32;not null;uniqueIndex:idx_oauth_provider_subject" json:"provider"`
	ProviderUserID        string    `gorm:"size:128;not null;uniqueIndex:idx_oauth_provider_subject" json:"provider_user_id"`
	Email                 string    `gorm:"size:255" json:"email"`
	EncryptedRefreshToken string    `gorm:"size:2048" json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (a *OAuthAccount) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
