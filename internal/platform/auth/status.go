package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AccountStatusChecker reports whether an account may still authenticate.
type AccountStatusChecker interface {
	IsActive(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// StatusInvalidator drops any cached status for an account.
type StatusInvalidator interface {
	Invalidate(ctx context.Context, accountID uuid.UUID) error
}

// StatusCache is the key/value store behind CachedStatusChecker.
type StatusCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX writes value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

const (
	statusActive   = "1"
	statusInactive = "0"
	// statusStale marks an account whose status changed within the last TTL.
	// While it is present every check goes to the underlying checker and
	// nothing is cached, so a read that started before the change cannot
	// store its outdated answer.
	statusStale = "stale"
)

// CachedStatusChecker fronts a checker with a short-lived cache. Cache
// failures fall through to the underlying checker.
type CachedStatusChecker struct {
	next   AccountStatusChecker
	cache  StatusCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedStatusChecker(next AccountStatusChecker, cache StatusCache, ttl time.Duration, logger zerolog.Logger) *CachedStatusChecker {
	return &CachedStatusChecker{next: next, cache: cache, ttl: ttl, logger: logger}
}

func statusKey(accountID uuid.UUID) string {
	return "clinic:account-active:" + accountID.String()
}

func (c *CachedStatusChecker) IsActive(ctx context.Context, accountID uuid.UUID) (bool, error) {
	key := statusKey(accountID)
	v, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("account status cache read failed")
	} else if found && v != statusStale {
		return v == statusActive, nil
	}

	active, err := c.next.IsActive(ctx, accountID)
	if err != nil {
		return false, err
	}

	v = statusInactive
	if active {
		v = statusActive
	}
	if _, err := c.cache.SetNX(ctx, key, v, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("account status cache write failed")
	}
	return active, nil
}

// Invalidate overwrites any cached status with the stale marker for one TTL.
func (c *CachedStatusChecker) Invalidate(ctx context.Context, accountID uuid.UUID) error {
	return c.cache.Set(ctx, statusKey(accountID), statusStale, c.ttl)
}

// RedisStatusCache implements StatusCache on Redis.
type RedisStatusCache struct {
	client *redis.Client
}

func NewRedisStatusCache(client *redis.Client) *RedisStatusCache {
	return &RedisStatusCache{client: client}
}

func (r *RedisStatusCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStatusCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStatusCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}
