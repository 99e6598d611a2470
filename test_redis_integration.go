// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/pkg/common"
	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

// This is a manual integration test for the rating flow on Redis
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis running on localhost:6379

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting Redis integration test...")

	ctx := context.Background()

	client, err := preferences.InitRedisClient(ctx, preferences.RedisConfig{
		Host:         common.GetEnv("REDIS_HOST", "localhost"),
		Port:         common.GetEnv("REDIS_PORT", "6379"),
		MaxRetries:   common.GetEnvInt("REDIS_MAX_RETRIES", 3),
		RetryDelayMs: 500,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer client.Close()

	prefs, err := preferences.New(preferences.NewRedisBackend(client, preferences.RedisBackendConfig{}))
	if err != nil {
		logrus.Fatalf("Failed to create preferences: %v", err)
	}

	testUserID := fmt.Sprintf("test-user-%d", time.Now().Unix())
	logrus.Infof("Testing with user ID: %s", testUserID)

	engine, err := rating.NewEngine(prefs, rating.Config{
		BaseKey:          rating.DefaultBaseKey + common.UserKey("integration", testUserID) + "_",
		RateCount:        2,
		ReminderBaseline: 1,
	})
	if err != nil {
		logrus.Fatalf("NewEngine failed: %v", err)
	}

	// Test 1: Fresh user
	logrus.Infof("\n=== Test 1: Fresh user ===")
	first, err := engine.IsFirstLaunch(ctx)
	if err != nil || !first {
		logrus.Fatalf("IsFirstLaunch = %v, %v; expected true", first, err)
	}
	logrus.Infof("✓ Fresh user has no first launch")

	// Test 2: Launches reach the count threshold
	logrus.Infof("\n=== Test 2: Record launches ===")
	for i := 0; i < 2; i++ {
		if _, err := engine.Initialize(ctx); err != nil {
			logrus.Fatalf("Initialize failed: %v", err)
		}
	}
	s, err := engine.State(ctx)
	if err != nil {
		logrus.Fatalf("State failed: %v", err)
	}
	if s.LaunchCount != 2 {
		logrus.Fatalf("LaunchCount = %d, expected 2", s.LaunchCount)
	}
	logrus.Infof("✓ Recorded launches: %+v", s)

	// Test 3: Prompt is due
	logrus.Infof("\n=== Test 3: Prompt decision ===")
	should, err := engine.ShouldPrompt(ctx)
	if err != nil || !should {
		logrus.Fatalf("ShouldPrompt = %v, %v; expected true", should, err)
	}
	logrus.Infof("✓ Prompt is due")

	// Test 4: Remind later
	logrus.Infof("\n=== Test 4: Remind later ===")
	if err := engine.RecordResponse(ctx, true); err != nil {
		logrus.Fatalf("RecordResponse(true) failed: %v", err)
	}
	if s, _ = engine.State(ctx); !s.IsRequesting || s.LaunchCount != 0 {
		logrus.Fatalf("state after remind = %+v", s)
	}
	logrus.Infof("✓ Launch count reset, still requesting")

	// Test 5: Never ask again
	logrus.Infof("\n=== Test 5: Never ask again ===")
	if err := engine.RecordResponse(ctx, false); err != nil {
		logrus.Fatalf("RecordResponse(false) failed: %v", err)
	}
	if should, _ = engine.ShouldPrompt(ctx); should {
		logrus.Fatalf("ShouldPrompt = true after never-ask")
	}
	logrus.Infof("✓ Prompt suppressed")

	// Test 6: Clean up
	logrus.Infof("\n=== Test 6: Clean up ===")
	if err := engine.Reset(ctx); err != nil {
		logrus.Fatalf("Reset failed: %v", err)
	}
	if first, _ = engine.IsFirstLaunch(ctx); !first {
		logrus.Fatalf("IsFirstLaunch = false after Reset")
	}
	logrus.Infof("✓ Verified state was deleted")

	logrus.Infof("\n==================================================")
	logrus.Infof("✅ All Redis integration tests passed!")
	logrus.Infof("==================================================")
}
