package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lmring/lmring/internal/domain"
)

// ErrDuplicateVote is returned when the user already voted on the response.
var ErrDuplicateVote = errors.New("vote already recorded for this response")

// ModelTally is the vote count of one model across all responses.
type ModelTally struct {
	ModelName    string
	ProviderName string
	Likes        int64
	Dislikes     int64
	Neutral      int64
}

type VoteRepository interface {
	Create(ctx context.Context, vote *domain.UserVote) error
	ListForUserByMessages(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) ([]domain.UserVote, error)
	TallyByModel(ctx context.Context) ([]ModelTally, error)
}

type GormVoteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) VoteRepository { return &GormVoteRepository{db: db} }

func (r *GormVoteRepository) Create(ctx context.Context, vote *domain.UserVote) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(vote).Error
	return observe(ctx, "vote", "create", err, nil, ErrDuplicateVote)
}

func (r *GormVoteRepository) ListForUserByMessages(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) ([]domain.UserVote, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var votes []domain.UserVote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Find(&votes).Error
	return votes, observe(ctx, "vote", "list_for_user", err, nil, nil)
}

func (r *GormVoteRepository) TallyByModel(ctx context.Context) ([]ModelTally, error) {
	var out []ModelTally
	err := r.db.WithContext(ctx).
		Table("user_votes").
		Select(`model_responses.model_name AS model_name,
			MAX(model_responses.provider_name) AS provider_name,
			SUM(CASE WHEN user_votes.vote_type = ? THEN 1 ELSE 0 END) AS likes,
			SUM(CASE WHEN user_votes.vote_type = ? THEN 1 ELSE 0 END) AS dislikes,
			SUM(CASE WHEN user_votes.vote_type = ? THEN 1 ELSE 0 END) AS neutral`,
			domain.VoteLike, domain.VoteDislike, domain.VoteNeutral).
		Joins("JOIN model_responses ON model_responses.id = user_votes.model_response_id").
		Group("model_responses.model_name").
		Order("model_responses.model_name asc").
		Scan(&out).Error
	return out, observe(ctx, "vote", "tally_by_model", err, nil, nil)
}
