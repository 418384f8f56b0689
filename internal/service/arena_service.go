package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/repository"
)

const (
	maxTitleLength   = 255
	defaultTitle     = "New conversation"
	maxMessageLength = 100_000
)

var (
	ErrEmptyMessage    = errors.New("message content is required")
	ErrMessageTooLong  = errors.New("message content is too long")
	ErrInvalidResponse = errors.New("model name, provider and content are required")
)

type ConversationService struct {
	repo repository.ConversationRepository
}

func NewConversationService(repo repository.ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

func (s *ConversationService) Create(ctx context.Context, userID uuid.UUID, title string) (*domain.Conversation, error) {
	c := &domain.Conversation{UserID: userID, Title: normalizeTitle(title)}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ConversationService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Conversation, error) {
	return s.repo.FindForUser(ctx, id, userID)
}

func (s *ConversationService) List(ctx context.Context, userID uuid.UUID, req repository.PageRequest) (repository.PageResult[domain.Conversation], error) {
	return s.repo.ListPagedForUser(ctx, userID, req)
}

func (s *ConversationService) AddMessage(ctx context.Context, userID, conversationID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error) {
	if _, err := domain.ParseMessageRole(string(role)); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageLength {
		return nil, ErrMessageTooLong
	}
	if _, err := s.repo.FindForUser(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	m := &domain.Message{ConversationID: conversationID, Role: role, Content: content}
	if err := s.repo.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// AddResponse attaches one model's answer to a message the user owns.
func (s *ConversationService) AddResponse(ctx context.Context, userID, messageID uuid.UUID, in domain.ModelResponse) (*domain.ModelResponse, error) {
	in.ModelName = strings.TrimSpace(in.ModelName)
	in.ProviderName = strings.TrimSpace(in.ProviderName)
	if in.ModelName == "" || in.ProviderName == "" || strings.TrimSpace(in.ResponseContent) == "" {
		return nil, ErrInvalidResponse
	}
	if _, err := s.repo.FindMessageForUser(ctx, messageID, userID); err != nil {
		return nil, err
	}
	in.ID = uuid.Nil
	in.MessageID = messageID
	if err := s.repo.AddResponse(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func normalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return defaultTitle
	}
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}
	return title
}

var ErrVoteExists = errors.New("vote already recorded for this response")

type VoteService struct {
	conversations repository.ConversationRepository
	votes         repository.VoteRepository
	rankings      repository.RankingRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewVoteService(
	conversations repository.ConversationRepository,
	votes repository.VoteRepository,
	rankings repository.RankingRepository,
	logger *slog.Logger,
) *VoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteService{conversations: conversations, votes: votes, rankings: rankings, logger: logger, now: time.Now}
}

// Cast records a vote. A second vote by the same user on the same response
// fails with ErrVoteExists; votes are never overwritten.
func (s *VoteService) Cast(ctx context.Context, userID, responseID uuid.UUID, voteType domain.VoteType) (*domain.UserVote, error) {
	if _, err := domain.ParseVoteType(string(voteType)); err != nil {
		observability.RecordVote(ctx, string(voteType), "invalid")
		return nil, err
	}
	resp, err := s.conversations.FindResponseForUser(ctx, responseID, userID)
	if err != nil {
		observability.RecordVote(ctx, string(voteType), "not_found")
		return nil, err
	}
	v := &domain.UserVote{
		UserID:          userID,
		MessageID:       resp.MessageID,
		ModelResponseID: resp.ID,
		VoteType:        voteType,
	}
	if err := s.votes.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			observability.RecordVote(ctx, string(voteType), "duplicate")
			return nil, ErrVoteExists
		}
		observability.RecordVote(ctx, string(voteType), "error")
		return nil, err
	}
	observability.RecordVote(ctx, string(voteType), "success")
	return v, nil
}

func (s *VoteService) ListForMessages(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) ([]domain.UserVote, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	return s.votes.ListForUserByMessages(ctx, userID, messageIDs)
}

// RecomputeRankings rebuilds every model ranking from the vote table and
// returns how many models were written.
func (s *VoteService) RecomputeRankings(ctx context.Context) (int, error) {
	ctx, span := observability.Tracer().Start(ctx, "rankings.recompute")
	defer span.End()

	tallies, err := s.votes.TallyByModel(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	rows := make([]domain.ModelRanking, 0, len(tallies))
	for _, t := range tallies {
		rows = append(rows, domain.ModelRanking{
			ModelName:     t.ModelName,
			ProviderName:  t.ProviderName,
			TotalLikes:    t.Likes,
			TotalDislikes: t.Dislikes,
			TotalNeutral:  t.Neutral,
			RankingScore:  domain.RankingScore(t.Likes, t.Dislikes, t.Neutral),
			UpdatedAt:     now,
		})
	}
	if err := s.rankings.Upsert(ctx, rows); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "model rankings recomputed", "models", len(rows))
	return len(rows), nil
}

func (s *VoteService) Rankings(ctx context.Context, limit int) ([]domain.ModelRanking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.rankings.List(ctx, limit)
}
