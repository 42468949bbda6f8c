package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)

// sessionKeyPrefix namespaces session keys in a shared Redis instance.
const sessionKeyPrefix = "fluentia:session:"

// RedisStore is a session [Store] backed by Redis, for deployments where
// sessions should survive a server restart. Sessions are stored as JSON under
// a namespaced key per token.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 = no expiry
}

// NewRedisStore creates a session store on the given Redis client. A non-zero
// ttl expires sessions server-side; the default of 0 keeps them until logout.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// redisSession is the stored representation; the token lives in the key.
type redisSession struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Put stores a session under its token.
func (s *RedisStore) Put(ctx context.Context, sess Session) error {
	data, err := json.Marshal(redisSession{
		UserID:    sess.UserID,
		Username:  sess.Username,
		Role:      sess.Role,
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.Token, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: redis set: %w", err)
	}
	return nil
}

// Get retrieves a session by token.
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("auth: redis get: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("auth: unmarshal session: %w", err)
	}
	return &Session{
		Token:     token,
		UserID:    stored.UserID,
		Username:  stored.Username,
		Role:      stored.Role,
		CreatedAt: stored.CreatedAt,
	}, nil
}

// Delete removes a session by token. Absent tokens are a no-op.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("auth: redis del: %w", err)
	}
	return nil
}

// Count reports the number of live sessions by walking the key namespace.
// TTL-expired sessions drop out of the count automatically.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var n int
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("auth: redis scan: %w", err)
	}
	return n, nil
}
