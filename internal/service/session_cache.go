package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lmring/lmring/internal/domain"
)

// SessionCache fronts session lookups by id. Implementations must treat a
// miss and a disabled cache the same way.
type SessionCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, bool, error)
	Set(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

type NoopSessionCache struct{}

func (NoopSessionCache) Get(context.Context, uuid.UUID) (*domain.Session, bool, error) {
	return nil, false, nil
}

func (NoopSessionCache) Set(context.Context, *domain.Session, time.Duration) error { return nil }

func (NoopSessionCache) Delete(context.Context, ...uuid.UUID) error { return nil }

type cachedSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RedisSessionCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSessionCache(client redis.UniversalClient, prefix string) *RedisSessionCache {
	if prefix == "" {
		prefix = "lmring:session"
	}
	return &RedisSessionCache{client: client, prefix: prefix}
}

func (c *RedisSessionCache) Get(ctx context.Context, id uuid.UUID) (*domain.Session, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cs cachedSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, false, nil
	}
	return &domain.Session{
		ID:        cs.ID,
		UserID:    cs.UserID,
		TokenHash: cs.TokenHash,
		ExpiresAt: cs.ExpiresAt,
		CreatedAt: cs.CreatedAt,
		UpdatedAt: cs.UpdatedAt,
	}, true, nil
}

func (c *RedisSessionCache) Set(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(cachedSession{
		ID:        s.ID,
		UserID:    s.UserID,
		TokenHash: s.TokenHash,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(s.ID), payload, ttl).Err()
}

func (c *RedisSessionCache) Delete(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisSessionCache) key(id uuid.UUID) string {
	return c.prefix + ":" + id.String()
}
