// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rating

import (
	"context"
	"testing"

	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupMiniredis returns a client for a miniredis instance closed with the test.
func setupMiniredis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func mustInitialize(t *testing.T, engine *Engine) {
	t.Helper()
	if _, err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
}

func mustState(t *testing.T, engine *Engine) State {
	t.Helper()
	s, err := engine.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	return s
}

func mustShouldPrompt(t *testing.T, engine *Engine) bool {
	t.Helper()
	should, err := engine.ShouldPrompt(context.Background())
	if err != nil {
		t.Fatalf("ShouldPrompt() error = %v", err)
	}
	return should
}

// Default thresholds, five launches over two days, then rated.
func TestTracker_PromptAfterThresholdsThenRated(t *testing.T) {
	engine, _, clock := setupTestEngine(t, DefaultConfig())
	start := clock.now.UnixMilli()

	mustInitialize(t, engine)
	s := mustState(t, engine)
	if s.FirstLaunchAt != start || s.LaunchCount != 1 || !s.IsRequesting {
		t.Fatalf("after first launch state = %+v", s)
	}
	if mustShouldPrompt(t, engine) {
		t.Error("ShouldPrompt() = true after one launch")
	}

	for i := 0; i < 4; i++ {
		clock.Advance(day / 2)
		mustInitialize(t, engine)
	}
	// Two days passed, five launches
	if s := mustState(t, engine); s.LaunchCount != 5 {
		t.Fatalf("LaunchCount = %d, expected 5", s.LaunchCount)
	}
	if !mustShouldPrompt(t, engine) {
		t.Error("ShouldPrompt() = false after 5 launches and 2 days")
	}

	responder := NewResponder(engine, &recordingListener{})
	acted, err := responder.OnRatingSelected(context.Background(), 5)
	if err != nil || !acted {
		t.Fatalf("OnRatingSelected() = %v, %v", acted, err)
	}

	s = mustState(t, engine)
	if s.IsRequesting {
		t.Error("IsRequesting should be false after rating")
	}
	if s.LaunchCount != 0 {
		t.Errorf("LaunchCount = %d, expected 0 after rating", s.LaunchCount)
	}
	if s.FirstLaunchAt != start {
		t.Errorf("FirstLaunchAt changed to %d", s.FirstLaunchAt)
	}

	// Suppressed is terminal
	for i := 0; i < 20; i++ {
		clock.Advance(day)
		mustInitialize(t, engine)
		if mustShouldPrompt(t, engine) {
			t.Fatal("ShouldPrompt() = true after rating")
		}
	}
	if s := mustState(t, engine); s.LaunchCount != 0 {
		t.Errorf("LaunchCount grew to %d while suppressed", s.LaunchCount)
	}
}

func TestTracker_RemindLater(t *testing.T) {
	ctx := context.Background()
	engine, _, clock := setupTestEngine(t, DefaultConfig())

	for i := 0; i < 5; i++ {
		mustInitialize(t, engine)
	}
	clock.Advance(2 * day)
	if !mustShouldPrompt(t, engine) {
		t.Fatal("ShouldPrompt() = false, expected due")
	}

	remindAt := clock.now.UnixMilli()
	if err := engine.RecordResponse(ctx, true); err != nil {
		t.Fatalf("RecordResponse(true) error = %v", err)
	}

	s := mustState(t, engine)
	if !s.IsRequesting || s.LaunchCount != 0 || s.LastReminderAt != remindAt {
		t.Fatalf("after remind state = %+v", s)
	}

	// Count is due again after 5 launches, reminder only after 2 days
	for i := 0; i < 5; i++ {
		mustInitialize(t, engine)
	}
	if mustShouldPrompt(t, engine) {
		t.Error("ShouldPrompt() = true before the remind interval")
	}

	clock.Advance(2*day - 1)
	if mustShouldPrompt(t, engine) {
		t.Error("ShouldPrompt() = true one ms before the remind interval")
	}

	clock.Advance(1)
	if !mustShouldPrompt(t, engine) {
		t.Error("ShouldPrompt() = false once the remind interval passed")
	}
}

func TestTracker_NeverAsk(t *testing.T) {
	ctx := context.Background()
	engine, prefs, clock := setupTestEngine(t, DefaultConfig())

	mustInitialize(t, engine)
	if err := engine.RecordResponse(ctx, false); err != nil {
		t.Fatalf("RecordResponse(false) error = %v", err)
	}

	backend := prefs.Backend()
	if _, found, _ := backend.Get(ctx, Partition, engine.Key(KeyLastReminder)); found {
		t.Error("last_reminder should be deleted when requests stop")
	}
	if _, found, _ := backend.Get(ctx, Partition, engine.Key(KeyLaunchCount)); found {
		t.Error("launch_count should be deleted on response")
	}

	clock.Advance(30 * day)
	for i := 0; i < 10; i++ {
		mustInitialize(t, engine)
	}
	if mustShouldPrompt(t, engine) {
		t.Error("ShouldPrompt() = true after never-ask")
	}
}

func TestTracker_FirstLaunchIdempotent(t *testing.T) {
	engine, _, clock := setupTestEngine(t, DefaultConfig())

	mustInitialize(t, engine)
	first := mustState(t, engine).FirstLaunchAt

	clock.Advance(3 * day)
	mustInitialize(t, engine)

	s := mustState(t, engine)
	if s.FirstLaunchAt != first {
		t.Errorf("FirstLaunchAt = %d, expected unchanged %d", s.FirstLaunchAt, first)
	}
	if s.LastLaunchAt != clock.now.UnixMilli() {
		t.Errorf("LastLaunchAt = %d, expected %d", s.LastLaunchAt, clock.now.UnixMilli())
	}
}

func TestTracker_IsolatedBaseKeys(t *testing.T) {
	engine, prefs, _ := setupTestEngine(t, Config{BaseKey: "a_"})
	other, err := NewEngine(prefs, Config{BaseKey: "b_"})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	mustInitialize(t, engine)
	mustInitialize(t, engine)
	if err := engine.RecordResponse(context.Background(), false); err != nil {
		t.Fatalf("RecordResponse() error = %v", err)
	}

	s := mustState(t, other)
	if s.FirstLaunchAt != 0 || s.LaunchCount != 0 || !s.IsRequesting {
		t.Errorf("other base key state = %+v, expected defaults", s)
	}
}

func TestTracker_Reset(t *testing.T) {
	ctx := context.Background()
	engine, prefs, _ := setupTestEngine(t, DefaultConfig())

	mustInitialize(t, engine)
	if err := engine.RecordResponse(ctx, false); err != nil {
		t.Fatalf("RecordResponse() error = %v", err)
	}

	if err := engine.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if n := prefs.Backend().(*preferences.MemoryBackend).Len(Partition); n != 0 {
		t.Errorf("%d keys left after Reset()", n)
	}
	first, _ := engine.IsFirstLaunch(ctx)
	if !first {
		t.Error("IsFirstLaunch() = false after Reset()")
	}
	if s := mustState(t, engine); !s.IsRequesting {
		t.Error("IsRequesting = false after Reset()")
	}
}

func TestTracker_RedisBackend(t *testing.T) {
	ctx := context.Background()
	client := setupMiniredis(t)

	prefs, _ := preferences.New(preferences.NewRedisBackend(client, preferences.RedisBackendConfig{}))
	engine, err := NewEngine(prefs, Config{RateCount: 2})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	mustInitialize(t, engine)
	mustInitialize(t, engine)

	due, err := engine.IsDueCount(ctx)
	if err != nil || !due {
		t.Errorf("IsDueCount() = %v, %v; expected true", due, err)
	}
}
