// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/internal/config"
	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

// Store is an opened preference store.
type Store struct {
	Preferences *preferences.Preferences
	// Health probes the store; nil for stores that need no probe.
	Health preferences.HealthChecker

	closer io.Closer
}

// Close releases the store connection, if any.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// InitStore opens the preference store selected by cfg.Store.
//
// ============================================================
// DEVELOPER: Preference store selection
// ============================================================
// - redis:  shared state for every replica (production)
// - sqlite: single-instance deployments with durable state
// - file:   single-instance JSON file, handy for local runs
// - memory: tests and demos, state is lost on restart
//
// To add a store, implement preferences.Backend and add a case below.
// ============================================================
func InitStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	var (
		backend preferences.Backend
		store   = &Store{}
	)

	switch cfg.Store {
	case config.StoreRedis:
		client, err := preferences.InitRedisClient(ctx, preferences.RedisConfig{
			Host:         cfg.RedisHost,
			Port:         cfg.RedisPort,
			Password:     cfg.RedisPassword,
			MaxRetries:   cfg.RedisMaxRetries,
			RetryDelayMs: cfg.RedisRetryDelayMs,
		})
		if err != nil {
			return nil, err
		}
		backend = preferences.NewRedisBackend(client, preferences.RedisBackendConfig{
			KeyPrefix: cfg.RedisKeyPrefix,
			TTL:       time.Duration(cfg.RedisTTLHours) * time.Hour,
			Group:     rating.StateGroup,
		})
		store.Health = preferences.NewRedisHealthChecker(client)
		store.closer = client
	case config.StoreSQLite:
		sqlite, err := preferences.OpenSQLiteBackend(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend = sqlite
		store.closer = sqlite
	case config.StoreFile:
		file, err := preferences.OpenFileBackend(cfg.FileStorePath)
		if err != nil {
			return nil, err
		}
		backend = file
	case config.StoreMemory:
		backend = preferences.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	prefs, err := preferences.New(backend)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	store.Preferences = prefs

	logrus.Infof("initialized %s preference store", cfg.Store)
	return store, nil
}
