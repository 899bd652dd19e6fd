package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "shop:session:"

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	KeyPrefix string
	// TTL expires idle sessions; zero keeps them forever.
	TTL time.Duration
}

type redisStore struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisStore keeps sessions as JSON documents so they survive restarts.
func NewRedisStore(client *redis.Client, opts RedisOptions) Store {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return &redisStore{client: client, opts: opts}
}

func (r *redisStore) key(userID int64) string {
	return r.opts.KeyPrefix + strconv.FormatInt(userID, 10)
}

// Load implements Store.
func (r *redisStore) Load(ctx context.Context, userID int64) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", userID, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", userID, err)
	}
	return s.Clone(), nil
}

// Save implements Store.
func (r *redisStore) Save(ctx context.Context, userID int64, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}
	if err := r.client.Set(ctx, r.key(userID), data, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}
