// Package sessions keeps short-lived JSON state between HTTP calls, in Redis
// when configured and in process memory otherwise.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

const defaultTTL = 30 * time.Minute

// Client is the part of *redis.Client the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStore struct {
	rdb    Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb Client, ttl time.Duration, prefix string) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Save overwrites the session and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, s.key(id), b, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string, v any) error {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return apperr.NotFound("sessions.Load", "session")
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
