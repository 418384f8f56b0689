package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lmring/lmring/internal/domain"
)

type RankingRepository interface {
	Upsert(ctx context.Context, rankings []domain.ModelRanking) error
	List(ctx context.Context, limit int) ([]domain.ModelRanking, error)
}

type GormRankingRepository struct{ db *gorm.DB }

func NewRankingRepository(db *gorm.DB) RankingRepository { return &GormRankingRepository{db: db} }

func (r *GormRankingRepository) Upsert(ctx context.Context, rankings []domain.ModelRanking) error {
	if len(rankings) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rankings {
		rankings[i].UpdatedAt = now
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "model_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_name", "total_likes", "total_dislikes", "total_neutral", "ranking_score", "updated_at",
		}),
	}).Create(&rankings).Error
	return observe(ctx, "ranking", "upsert", err, nil, nil)
}

func (r *GormRankingRepository) List(ctx context.Context, limit int) ([]domain.ModelRanking, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	var out []domain.ModelRanking
	err := r.db.WithContext(ctx).
		Order("ranking_score desc").
		Order("(total_likes + total_dislikes + total_neutral) desc").
		Order("model_name asc").
		Limit(limit).
		Find(&out).Error
	return out, observe(ctx, "ranking", "list", err, nil, nil)
}
