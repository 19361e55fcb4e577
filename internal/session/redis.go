package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps session records as JSON under their id hash. The key
// TTL is the record's remaining lifetime plus a grace period, so Redis
// itself garbage-collects expired sessions; the manager still checks
// ExpiresAt because the record may outlive it within the grace window.
type RedisStore struct {
	client *redis.Client
	grace  time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, grace: time.Hour}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Create(ctx context.Context, idHash string, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(record.ExpiresAt) + s.grace
	if ttl <= 0 {
		ttl = s.grace
	}
	return s.client.Set(ctx, redisKeyPrefix+idHash, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, idHash string) (Record, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+idHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrSessionNotFound
		}
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return Record{}, fmt.Errorf("decode session: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Delete(ctx context.Context, idHash string) error {
	return s.client.Del(ctx, redisKeyPrefix+idHash).Err()
}
