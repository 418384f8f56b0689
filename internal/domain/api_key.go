package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey stores a user's credential for an upstream model provider. The key
// itself is only persisted in encrypted form.
type APIKey struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_api_keys_user_provider" json:"user_id"`
	User         User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProviderName string    `gorm:"size:64;not null;uniqueIndex:idx_api_keys_user_provider" json:"provider_name"`
	EncryptedKey string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (k *APIKey) BeforeCreate(*gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
