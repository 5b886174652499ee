package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blocklist:"

// RedisRegistry stores revoked ids as keys with a TTL.
type RedisRegistry struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRegistry creates a RedisRegistry. A nil now defaults to time.Now.
func NewRedisRegistry(client *redis.Client, now func() time.Time) *RedisRegistry {
	if now == nil {
		now = time.Now
	}
	return &RedisRegistry{client: client, now: now}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, keyPrefix+id, "", ttl).Err(); err != nil {
		return fmt.Errorf("adding %s to blocklist: %w", id, err)
	}
	return nil
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("checking blocklist for %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
