package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lmring/lmring/internal/domain"
)

var ErrPreferencesNotFound = errors.New("preferences not found")

type PreferencesRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserPreferences, error)
	Upsert(ctx context.Context, prefs *domain.UserPreferences) error
}

type GormPreferencesRepository struct{ db *gorm.DB }

func NewPreferencesRepository(db *gorm.DB) PreferencesRepository {
	return &GormPreferencesRepository{db: db}
}

func (r *GormPreferencesRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserPreferences, error) {
	var p domain.UserPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err := observe(ctx, "preferences", "find_by_user_id", err, ErrPreferencesNotFound, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPreferencesRepository) Upsert(ctx context.Context, prefs *domain.UserPreferences) error {
	prefs.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "language", "default_models", "config_source", "updated_at"}),
	}).Create(prefs).Error
	return observe(ctx, "preferences", "upsert", err, nil, nil)
}
