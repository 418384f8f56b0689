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

var ErrCredentialNotFound = errors.New("local credential not found")

type LocalCredentialRepository interface {
	Create(ctx context.Context, credential *domain.LocalCredential) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.LocalCredential, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error
}

type GormLocalCredentialRepository struct {
	db *gorm.DB
}

func NewLocalCredentialRepository(db *gorm.DB) LocalCredentialRepository {
	return &GormLocalCredentialRepository{db: db}
}

func (r *GormLocalCredentialRepository) Create(ctx context.Context, credential *domain.LocalCredential) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(credential).Error
	return observe(ctx, "local_credential", "create", err, nil, ErrDuplicateKey)
}

func (r *GormLocalCredentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if err := observe(ctx, "local_credential", "find_by_user_id", err, ErrCredentialNotFound, nil); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormLocalCredentialRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error {
	res := r.db.WithContext(ctx).Model(&domain.LocalCredential{}).Where("user_id = ?", userID).
		Updates(map[string]any{"password_hash": newHash, "updated_at": time.Now().UTC()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	return observe(ctx, "local_credential", "update_password", err, ErrCredentialNotFound, nil)
}
