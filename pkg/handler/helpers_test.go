// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/AccelByte/extend-dynamic-rating/pkg/policy"
	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

// setupTestManager creates a prompt manager over miniredis with an "app-store"
// policy that is due after two launches.
func setupTestManager(t *testing.T) (*prompt.Manager, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	prefs, err := preferences.New(preferences.NewRedisBackend(client, preferences.RedisBackendConfig{}))
	if err != nil {
		t.Fatalf("preferences.New() error = %v", err)
	}

	registry := policy.NewRegistry()
	if err := registry.Register(policy.New(policy.PolicyConfig{
		ID:        "app-store",
		Enabled:   true,
		BaseKey:   "adr_key_",
		RateCount: 2,
	})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	manager, err := prompt.NewManager(prefs, registry, prompt.ManagerConfig{ReminderBaseline: 1})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return manager, client, mr
}
