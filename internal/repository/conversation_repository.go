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

var (
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrModelResponseNotFound = errors.New("model response not found")
)

// ConversationRepository owns conversations together with their messages and
// model responses. Lookups are scoped to the owning user.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) error
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Conversation, error)
	ListPagedForUser(ctx context.Context, userID uuid.UUID, req PageRequest) (PageResult[domain.Conversation], error)
	AddMessage(ctx context.Context, message *domain.Message) error
	FindMessageForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Message, error)
	AddResponse(ctx context.Context, response *domain.ModelResponse) error
	FindResponseForUser(ctx context.Context, id, userID uuid.UUID) (*domain.ModelResponse, error)
}

type GormConversationRepository struct{ db *gorm.DB }

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(conversation).Error
	return observe(ctx, "conversation", "create", err, nil, nil)
}

func (r *GormConversationRepository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Messages.Responses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err := observe(ctx, "conversation", "find_for_user", err, ErrConversationNotFound, nil); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormConversationRepository) ListPagedForUser(ctx context.Context, userID uuid.UUID, req PageRequest) (PageResult[domain.Conversation], error) {
	normalized := normalizePageRequest(req)
	result := PageResult[domain.Conversation]{Page: normalized.Page, PageSize: normalized.PageSize}

	base := r.db.WithContext(ctx).Model(&domain.Conversation{}).Where("user_id = ?", userID)
	if err := base.Count(&result.Total).Error; err != nil {
		return PageResult[domain.Conversation]{}, observe(ctx, "conversation", "list_paged", err, nil, nil)
	}
	offset := (normalized.Page - 1) * normalized.PageSize
	err := base.Order("updated_at desc").Offset(offset).Limit(normalized.PageSize).Find(&result.Items).Error
	if err := observe(ctx, "conversation", "list_paged", err, nil, nil); err != nil {
		return PageResult[domain.Conversation]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	return result, nil
}

// AddMessage inserts the message and bumps the conversation's updated_at.
func (r *GormConversationRepository) AddMessage(ctx context.Context, message *domain.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).Where("id = ?", message.ConversationID).
			Update("updated_at", time.Now().UTC()).Error
	})
	return observe(ctx, "conversation", "add_message", err, nil, nil)
}

func (r *GormConversationRepository) FindMessageForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("messages.id = ? AND conversations.user_id = ?", id, userID).
		First(&m).Error
	if err := observe(ctx, "conversation", "find_message_for_user", err, ErrMessageNotFound, nil); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormConversationRepository) AddResponse(ctx context.Context, response *domain.ModelResponse) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(response).Error
	return observe(ctx, "conversation", "add_response", err, nil, nil)
}

func (r *GormConversationRepository) FindResponseForUser(ctx context.Context, id, userID uuid.UUID) (*domain.ModelResponse, error) {
	var resp domain.ModelResponse
	err := r.db.WithContext(ctx).
		Joins("JOIN messages ON messages.id = model_responses.message_id").
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("model_responses.id = ? AND conversations.user_id = ?", id, userID).
		First(&resp).Error
	if err := observe(ctx, "conversation", "find_response_for_user", err, ErrModelResponseNotFound, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}
