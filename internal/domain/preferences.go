package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ConfigSource string

const (
	ConfigSourceManual       ConfigSource = "manual"
	ConfigSourceCherryStudio ConfigSource = "cherry-studio"
	ConfigSourceNewAPI       ConfigSource = "newapi"
)

var ErrInvalidConfigSource = errors.New("invalid config source")

func ParseConfigSource(v string) (ConfigSource, error) {
	switch s := ConfigSource(v); s {
	case ConfigSourceManual, ConfigSourceCherryStudio, ConfigSourceNewAPI:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidConfigSource, v)
	}
}

type UserPreferences struct {
	UserID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"user_id"`
	User          User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Theme         string       `gorm:"size:16;not null;default:system" json:"theme"`
	Language      string       `gorm:"size:8;not null;default:en" json:"language"`
	DefaultModels []string     `gorm:"serializer:json" json:"default_models"`
	ConfigSource  ConfigSource `gorm:"size:32;not null;default:manual" json:"config_source"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func DefaultPreferences(userID uuid.UUID) UserPreferences {
	return UserPreferences{
		UserID:        userID,
		Theme:         "system",
		Language:      "en",
		DefaultModels: []string{},
		ConfigSource:  ConfigSourceManual,
	}
}
