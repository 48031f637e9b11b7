// Package session provides server-side key-value storage scoped to an
// anonymous visitor. The storefront uses it for exactly one thing: the
// anonymous cart-identity token.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// Store is server-side session storage keyed by session id.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
}

const keyPrefix = "session:"

// RedisStore implements Store using Redis with a per-session TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logging.NewLogger("session-store"),
	}
}

// Get retrieves a session value. A missing key is an empty value, not an error.
func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	value, err := s.client.Get(ctx, keyPrefix+sessionID+":"+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		s.logger.Error("Session get error", logging.Fields{
			"session_id": sessionID,
			"key":        key,
			"error":      err.Error(),
		})
		return "", err
	}
	return value, nil
}

// Set stores a session value and refreshes its TTL.
func (s *RedisStore) Set(ctx context.Context, sessionID, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID+":"+key, value, s.ttl).Err(); err != nil {
		s.logger.Error("Session set error", logging.Fields{
			"session_id": sessionID,
			"key":        key,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[sessionID+":"+key], nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID+":"+key] = value
	return nil
}
