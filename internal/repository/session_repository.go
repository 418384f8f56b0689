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

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	ExtendExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	// DeleteByUserID removes every session of the user and returns the ids
	// that were removed.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
	return observe(ctx, "session", "create", err, nil, ErrDuplicateKey)
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err := observe(ctx, "session", "find_by_id", err, ErrSessionNotFound, nil); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) ExtendExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Session{}).Where("id = ?", id).
		Updates(map[string]any{"expires_at": expiresAt, "updated_at": time.Now().UTC()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	return observe(ctx, "session", "extend_expiry", err, ErrSessionNotFound, nil)
}

func (r *GormSessionRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Session{}).Error
	return observe(ctx, "session", "delete_by_id", err, nil, nil)
}

func (r *GormSessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Session{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&domain.Session{}).Error
	})
	if err := observe(ctx, "session", "delete_by_user_id", err, nil, nil); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormSessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Session{})
	return res.RowsAffected, observe(ctx, "session", "cleanup_expired", res.Error, nil, nil)
}
