package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/textile/erp/config"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrCacheMiss is returned when a key is absent or caching is disabled
var ErrCacheMiss = errors.New("cache miss")

// ErrLockNotObtained is returned when another holder owns the lock
var ErrLockNotObtained = errors.New("lock not obtained")

// Cache is the subset of cache behaviour services depend on
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// Locker hands out short-lived distributed locks
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// RedisCache provides caching and locking using Redis
type RedisCache struct {
	client  *redis.Client
	locker  *redislock.Client
	enabled bool
}

// NewRedisCache creates a new Redis cache. A disabled config yields a cache
// whose reads always miss and whose writes are dropped.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return &RedisCache{enabled: false}, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		locker:  redislock.New(client),
		enabled: true,
	}, nil
}

// Enabled reports whether Redis is in use
func (c *RedisCache) Enabled() bool {
	return c != nil && c.enabled
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("cache is disabled")
	}
	return c.client.Ping(ctx).Err()
}

// Get retrieves a JSON value from cache
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return ErrCacheMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}
	return nil
}

// Set stores a JSON value in cache with optional expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}
	return nil
}

// Delete removes keys from cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return errors.Wrap(c.client.Del(ctx, keys...).Err(), "failed to delete keys from Redis")
}

// Exists reports whether key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check key in Redis")
	}
	return n > 0, nil
}

// Increment adds one to the counter at key and returns the new value. Each
// call resets the counter's expiration. A disabled cache always returns 0.
func (c *RedisCache) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, expiration)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to increment counter in Redis")
	}
	return incr.Val(), nil
}

// Obtain takes a lock that expires after ttl unless released
func (c *RedisCache) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	if !c.Enabled() {
		return noopLock{}, nil
	}
	lock, err := c.locker.Obtain(ctx, key, ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to obtain lock")
	}
	return lock, nil
}

type noopLock struct{}

func (noopLock) Release(context.Context) error { return nil }

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.Enabled() || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// DashboardKey generates the cache key of a tenant's dashboard
func DashboardKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("dashboard:%s", tenantID.String())
}

// RevokedTokenKey generates the deny-list key of a token id
func RevokedTokenKey(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}

// UserRevokedKey generates the key holding the time before which a user's
// tokens are no longer accepted
func UserRevokedKey(userID uuid.UUID) string {
	return fmt.Sprintf("revoked:user:%s", userID.String())
}

// RoleRevokedKey is UserRevokedKey for every holder of a role
func RoleRevokedKey(roleID uuid.UUID) string {
	return fmt.Sprintf("revoked:role:%s", roleID.String())
}

// TwoFactorAttemptsKey counts failed codes against one login challenge
func TwoFactorAttemptsKey(challengeID string) string {
	return fmt.Sprintf("2fa:attempts:%s", challengeID)
}

// TOTPUsedKey marks a code as spent for a user
func TOTPUsedKey(userID uuid.UUID, code string) string {
	return fmt.Sprintf("2fa:used:%s:%s", userID.String(), code)
}

// ScheduleLockKey generates the lock key of a report schedule
func ScheduleLockKey(scheduleID uuid.UUID) string {
	return fmt.Sprintf("report:schedule:%s", scheduleID.String())
}
