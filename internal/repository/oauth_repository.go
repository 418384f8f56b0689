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

var ErrOAuthAccountNotFound = errors.New("oauth account not found")

type OAuthRepository interface {
	FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.OAuthAccount, error)
	Create(ctx context.Context, account *domain.OAuthAccount) error
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, encrypted string) error
}

type GormOAuthRepository struct{ db *gorm.DB }

func NewOAuthRepository(db *gorm.DB) OAuthRepository { return &GormOAuthRepository{db: db} }

func (r *GormOAuthRepository) FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error) {
	var a domain.OAuthAccount
	err := r.db.WithContext(ctx).Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&a).Error
	if err := observe(ctx, "oauth_account", "find_by_provider", err, ErrOAuthAccountNotFound, nil); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormOAuthRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.OAuthAccount, error) {
	var accounts []domain.OAuthAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("provider asc").Find(&accounts).Error
	return accounts, observe(ctx, "oauth_account", "list_by_user_id", err, nil, nil)
}

func (r *GormOAuthRepository) Create(ctx context.Context, account *domain.OAuthAccount) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(account).Error
	return observe(ctx, "oauth_account", "create", err, nil, ErrDuplicateKey)
}

func (r *GormOAuthRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, encrypted string) error {
	res := r.db.WithContext(ctx).Model(&domain.OAuthAccount{}).Where("id = ?", id).
		Updates(map[string]any{"encrypted_refresh_token": encrypted, "updated_at": time.Now().UTC()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	return observe(ctx, "oauth_account", "update_refresh_token", err, ErrOAuthAccountNotFound, nil)
}
