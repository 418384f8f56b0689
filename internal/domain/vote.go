package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteNeutral VoteType = "neutral"
	VoteDislike VoteType = "dislike"
)

var ErrInvalidVoteType = errors.New("invalid vote type")

func ParseVoteType(v string) (VoteType, error) {
	switch t := VoteType(v); t {
	case VoteLike, VoteNeutral, VoteDislike:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVoteType, v)
	}
}

// UserVote is unique per (user, model response).
type UserVote struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:unique_user_model_vote" json:"user_id"`
	User            User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MessageID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"message_id"`
	Message         Message       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ModelResponseID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:unique_user_model_vote" json:"model_response_id"`
	ModelResponse   ModelResponse `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	VoteType        VoteType      `gorm:"size:16;not null" json:"vote_type"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (v *UserVote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type ModelRanking struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModelName     string    `gorm:"size:128;not null;uniqueIndex" json:"model_name"`
	ProviderName  string    `gorm:"size:64;not null" json:"provider_name"`
	TotalLikes    int64     `gorm:"not null;default:0" json:"total_likes"`
	TotalDislikes int64     `gorm:"not null;default:0" json:"total_dislikes"`
	TotalNeutral  int64     `gorm:"not null;default:0" json:"total_neutral"`
	RankingScore  float64   `gorm:"not null;default:0;index:idx_model_rankings_score" json:"ranking_score"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (m *ModelRanking) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *ModelRanking) TotalVotes() int64 {
	return m.TotalLikes + m.TotalDislikes + m.TotalNeutral
}

// RankingScore is (likes - dislikes) / total, or 0 without votes.
func RankingScore(likes, dislikes, neutral int64) float64 {
	total := likes + dislikes + neutral
	if total == 0 {
		return 0
	}
	return float64(likes-dislikes) / float64(total)
}
