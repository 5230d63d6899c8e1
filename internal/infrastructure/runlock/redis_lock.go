// Package runlock provides the per-integration sync run lock. The Redis
// implementation serves distributed deployments where multiple instances
// share lock state; the in-memory implementation serves single-instance
// deployments and tests.
package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/modaretail/backend/internal/domain/integration"
)

// Ensure RedisRunLock implements RunLock
var _ integration.RunLock = (*RedisRunLock)(nil)

// RedisRunLock implements the run lock on Redis SETNX with TTL
type RedisRunLock struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRunLock creates a Redis-backed run lock
func NewRedisRunLock(cfg RedisConfig) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRunLock{
		client:    client,
		keyPrefix: "sync:runlock:",
	}, nil
}

// NewRedisRunLockWithClient creates a lock with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisRunLockWithClient(client *redis.Client, keyPrefix string) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = "sync:runlock:"
	}
	return &RedisRunLock{client: client, keyPrefix: keyPrefix}
}

// Acquire attempts to take the lock via SETNX with TTL in one atomic call
func (l *RedisRunLock) Acquire(ctx context.Context, integrationID uuid.UUID, ttl time.Duration) (bool, error) {
	key := l.keyPrefix + integrationID.String()

	acquired, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lock
func (l *RedisRunLock) Release(ctx context.Context, integrationID uuid.UUID) error {
	key := l.keyPrefix + integrationID.String()

	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}
