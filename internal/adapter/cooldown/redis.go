package cooldown

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the cooldown keys
const DefaultPrefix = "wealthnest:incentive"

// RedisCooldown implements domain.IncentiveCooldown with one expiring key per vault
type RedisCooldown struct {
	client redis.UniversalClient
	prefix string
	period time.Duration
}

// NewRedisCooldown creates a cooldown that allows one claim per vault per period
func NewRedisCooldown(client redis.UniversalClient, prefix string, period time.Duration) *RedisCooldown {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = DefaultPrefix
	}

	return &RedisCooldown{
		client: client,
		prefix: trimmedPrefix,
		period: period,
	}
}

// NewClient parses a redis:// URL and pings the server
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Claim reserves the incentive for the vault.
// Logic:
//  1. SET key NX PX period; success means the vault had no live claim
//  2. Otherwise report the key's remaining TTL as the retry delay
func (c *RedisCooldown) Claim(ctx context.Context, vaultID uuid.UUID) (bool, time.Duration, error) {
	if c == nil || c.client == nil || c.period <= 0 {
		return true, 0, nil
	}

	key := c.key(vaultID)
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.period).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to claim incentive cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read incentive cooldown: %w", err)
	}
	// Key without expiry or gone between calls
	if ttl < 0 {
		ttl = c.period
	}

	return false, ttl, nil
}

// Release deletes the vault's claim
func (c *RedisCooldown) Release(ctx context.Context, vaultID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, c.key(vaultID)).Err(); err != nil {
		return fmt.Errorf("failed to release incentive cooldown: %w", err)
	}
	return nil
}

func (c *RedisCooldown) key(vaultID uuid.UUID) string {
	return c.prefix + ":" + vaultID.String()
}
