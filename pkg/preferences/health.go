// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether a store is reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// RedisHealthChecker provides Redis health check functionality
type RedisHealthChecker struct {
	client redis.UniversalClient
}

// NewRedisHealthChecker creates a new health checker
func NewRedisHealthChecker(client redis.UniversalClient) *RedisHealthChecker {
	return &RedisHealthChecker{client: client}
}

// Check performs a Redis health check
func (h *RedisHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := h.client.Ping(ctx).Result()
	if err != nil {
		logrus.Errorf("Redis health check failed: %v", err)
		return err
	}

	logrus.Debugf("Redis health check passed")
	return nil
}

// IsHealthy returns true if Redis is accessible
func (h *RedisHealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
