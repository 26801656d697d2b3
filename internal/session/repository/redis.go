package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"church-portal/internal/session/domain"
)

const redisKeyPrefix = "cp:session:"

// RedisStore keeps each session as a JSON value whose TTL matches the record's absolute expiry.
type RedisStore struct {
	client redis.UniversalClient
	nowF   func() time.Time
}

// NewRedisStore returns a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, nowF: time.Now}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Create stores s. It fails with ErrInvalidSession if s has no id, no user or is already expired.
func (r *RedisStore) Create(ctx context.Context, s *domain.Session) error {
	return r.put(ctx, s)
}

// Get returns the session for id, or nil if not found.
func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	return &s, nil
}

// Update overwrites s keeping its absolute expiry. An expired record is deleted instead.
func (r *RedisStore) Update(ctx context.Context, s *domain.Session) error {
	if s != nil && s.ID != "" && s.Expired(r.nowF()) {
		return r.Delete(ctx, s.ID)
	}
	return r.put(ctx, s)
}

// Delete removes the session for id. Deleting an unknown id is not an error.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return r.client.Del(ctx, redisKey(id)).Err()
}

func (r *RedisStore) put(ctx context.Context, s *domain.Session) error {
	if s == nil || s.ID == "" || s.UserID == "" {
		return ErrInvalidSession
	}
	ttl := s.ExpiresAt.Sub(r.nowF())
	if ttl <= 0 {
		return ErrInvalidSession
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	return r.client.Set(ctx, redisKey(s.ID), raw, ttl).Err()
}
