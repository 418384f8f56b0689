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

var ErrAPIKeyNotFound = errors.New("api key not found")

type APIKeyRepository interface {
	Upsert(ctx context.Context, key *domain.APIKey) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.APIKey, error)
	FindByProvider(ctx context.Context, userID uuid.UUID, provider string) (*domain.APIKey, error)
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}

type GormAPIKeyRepository struct{ db *gorm.DB }

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository { return &GormAPIKeyRepository{db: db} }

// Upsert replaces the stored key for (user, provider).
func (r *GormAPIKeyRepository) Upsert(ctx context.Context, key *domain.APIKey) error {
	key.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"encrypted_key", "updated_at"}),
	}).Create(key).Error
	return observe(ctx, "api_key", "upsert", err, nil, nil)
}

func (r *GormAPIKeyRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("provider_name asc").Find(&keys).Error
	return keys, observe(ctx, "api_key", "list_by_user_id", err, nil, nil)
}

func (r *GormAPIKeyRepository) FindByProvider(ctx context.Context, userID uuid.UUID, provider string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := r.db.WithContext(ctx).Where("user_id = ? AND provider_name = ?", userID, provider).First(&key).Error
	if err := observe(ctx, "api_key", "find_by_provider", err, ErrAPIKeyNotFound, nil); err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *GormAPIKeyRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND provider_name = ?", userID, provider).Delete(&domain.APIKey{})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	return observe(ctx, "api_key", "delete", err, ErrAPIKeyNotFound, nil)
}
