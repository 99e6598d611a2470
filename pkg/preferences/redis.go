// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// redisBackendDefaultKeyPrefix is the prefix for all preference partition hashes
	redisBackendDefaultKeyPrefix = "dynamic_rating:prefs:"

	redisScanCount = 100
)

// RedisConfig holds the connection settings used by InitRedisClient.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	MaxRetries   int
	RetryDelayMs int
}

// InitRedisClient initializes and returns a Redis client with retry logic
func InitRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	addr := cfg.Host + ":" + cfg.Port
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	b := backoff.NewExponentialBackOff()
	if cfg.RetryDelayMs > 0 {
		b.InitialInterval = time.Duration(cfg.RetryDelayMs) * time.Millisecond
	}

	attempt := 0
	err := backoff.Retry(
		func() error {
			attempt++
			if _, err := client.Ping(ctx).Result(); err != nil {
				logrus.Warnf("Redis connection failed (attempt %d/%d): %v, retrying...", attempt, maxRetries, err)
				return err
			}
			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries-1)), ctx),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s after %d attempts: %w", addr, attempt, err)
	}

	logrus.Infof("connected to Redis at %s (attempt %d/%d)", addr, attempt, maxRetries)
	return client, nil
}

// RedisBackend implements Backend with Redis hashes. Without a Group every
// partition is one hash; with one, each group of keys gets its own hash named
// prefix + partition + ":" + group, so TTLs and writes stay per group.
type RedisBackend struct {
	client redis.UniversalClient
	cfg    RedisBackendConfig
}

// RedisBackendConfig tunes the Redis backend.
// A zero value uses the default key prefix and no expiry.
type RedisBackendConfig struct {
	KeyPrefix string
	// TTL is refreshed on every write when positive, per hash.
	TTL time.Duration
	// Group maps a key to the hash it is stored in. Keys mapped to ""
	// stay in the partition hash.
	Group func(key string) string
}

// NewRedisBackend creates a new Redis-backed preference store.
func NewRedisBackend(client redis.UniversalClient, cfg RedisBackendConfig) *RedisBackend {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = redisBackendDefaultKeyPrefix
	}
	return &RedisBackend{
		client: client,
		cfg:    cfg,
	}
}

// makeRedisBackendKey creates the Redis hash key holding key in a partition
func (r *RedisBackend) makeRedisBackendKey(partition, key string) string {
	if r.cfg.Group != nil {
		if group := r.cfg.Group(key); group != "" {
			return fmt.Sprintf("%s:%s", r.partitionKey(partition), group)
		}
	}
	return r.partitionKey(partition)
}

func (r *RedisBackend) partitionKey(partition string) string {
	return fmt.Sprintf("%s%s", r.cfg.KeyPrefix, partition)
}

func (r *RedisBackend) Get(ctx context.Context, partition, key string) (string, bool, error) {
	value, err := r.client.HGet(ctx, r.makeRedisBackendKey(partition, key), key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logrus.Errorf("failed to get %s from partition %s: %v", key, partition, err)
		return "", false, fmt.Errorf("failed to get preference: %w", err)
	}
	return value, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, partition, key, value string) error {
	hash := r.makeRedisBackendKey(partition, key)

	if err := r.client.HSet(ctx, hash, key, value).Err(); err != nil {
		logrus.Errorf("failed to set %s in partition %s: %v", key, partition, err)
		return fmt.Errorf("failed to set preference: %w", err)
	}

	if r.cfg.TTL > 0 {
		if err := r.client.Expire(ctx, hash, r.cfg.TTL).Err(); err != nil {
			logrus.Warnf("failed to refresh TTL of partition %s: %v", partition, err)
		}
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, partition, key string) error {
	if err := r.client.HDel(ctx, r.makeRedisBackendKey(partition, key), key).Err(); err != nil {
		logrus.Errorf("failed to delete %s from partition %s: %v", key, partition, err)
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// Clear deletes the partition hash and, when grouping is enabled, every
// group hash found by SCAN MATCH prefix + partition + ":*". The scan is not
// atomic: groups written while it runs may survive. On a cluster client
// only the node serving the scan is covered.
func (r *RedisBackend) Clear(ctx context.Context, partition string) error {
	hash := r.partitionKey(partition)
	keys := []string{hash}

	if r.cfg.Group != nil {
		iter := r.client.Scan(ctx, 0, escapeRedisPattern(hash+":")+"*", redisScanCount).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			logrus.Errorf("failed to scan partition %s: %v", partition, err)
			return fmt.Errorf("failed to clear partition: %w", err)
		}
	}

	for start := 0; start < len(keys); start += redisScanCount {
		end := min(start+redisScanCount, len(keys))
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			logrus.Errorf("failed to clear partition %s: %v", partition, err)
			return fmt.Errorf("failed to clear partition: %w", err)
		}
	}
	return nil
}

// escapeRedisPattern quotes glob metacharacters for MATCH.
func escapeRedisPattern(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

var _ Backend = (*RedisBackend)(nil)
