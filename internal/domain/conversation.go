package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

var ErrInvalidMessageRole = errors.New("invalid message role")

func ParseMessageRole(v string) (MessageRole, error) {
	switch r := MessageRole(v); r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMessageRole, v)
	}
}

type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Message struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           MessageRole     `gorm:"size:16;not null" json:"role"`
	Content        string          `gorm:"type:text;not null" json:"content"`
	Responses      []ModelResponse `gorm:"constraint:OnDelete:CASCADE" json:"responses,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type ModelResponse struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID       uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	ModelName       string    `gorm:"size:128;not null;index" json:"model_name"`
	ProviderName    string    `gorm:"size:64;not null" json:"provider_name"`
	ResponseContent string    `gorm:"type:text;not null" json:"response_content"`
	TokensUsed      *int      `json:"tokens_used,omitempty"`
	ResponseTimeMS  *int      `gorm:"column:response_time_ms" json:"response_time_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (r *ModelResponse) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
