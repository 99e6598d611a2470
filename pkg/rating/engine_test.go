// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
)

// testClock is a manually advanced clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

const day = 24 * time.Hour

// setupTestEngine builds an engine over an in-memory store with a fixed clock.
func setupTestEngine(t *testing.T, cfg Config) (*Engine, *preferences.Preferences, *testClock) {
	t.Helper()

	prefs, err := preferences.New(preferences.NewMemoryBackend())
	if err != nil {
		t.Fatalf("preferences.New() error = %v", err)
	}

	clock := &testClock{now: time.UnixMilli(1_700_000_000_000)}
	cfg.Clock = clock.Now

	engine, err := NewEngine(prefs, cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine, prefs, clock
}

func TestNewEngine_NilPreferences(t *testing.T) {
	engine, err := NewEngine(nil, DefaultConfig())
	if !errors.Is(err, ErrInitialization) {
		t.Errorf("NewEngine(nil) error = %v, expected ErrInitialization", err)
	}
	if engine != nil {
		t.Error("NewEngine(nil) returned a non-nil engine")
	}
}

func TestNewEngine_Config(t *testing.T) {
	engine, _, clock := setupTestEngine(t, Config{
		RateInterval:   -3,
		RateCount:      7,
		RemindInterval: 1,
	})

	cfg := engine.Config()
	if cfg.BaseKey != DefaultBaseKey {
		t.Errorf("BaseKey = %q, expected %q", cfg.BaseKey, DefaultBaseKey)
	}
	if cfg.RateInterval != 0 {
		t.Errorf("RateInterval = %d, expected negative clamped to 0", cfg.RateInterval)
	}
	if cfg.RateCount != 7 || cfg.RemindInterval != 1 {
		t.Errorf("RateCount, RemindInterval = %d, %d; expected 7, 1", cfg.RateCount, cfg.RemindInterval)
	}
	if cfg.ReminderBaseline != clock.now.UnixMilli() {
		t.Errorf("ReminderBaseline = %d, expected construction time %d", cfg.ReminderBaseline, clock.now.UnixMilli())
	}
}

func TestEngine_SettersChain(t *testing.T) {
	engine, _, _ := setupTestEngine(t, DefaultConfig())

	got := engine.SetBaseKey("feature_x_").SetRateInterval(5).SetRateCount(10).SetRemindInterval(3)
	if got != engine {
		t.Fatal("setters should return the same engine")
	}

	if engine.Key(KeyLaunchCount) != "feature_x_launch_count" {
		t.Errorf("Key() = %q, expected \"feature_x_launch_count\"", engine.Key(KeyLaunchCount))
	}

	engine.SetBaseKey("")
	if engine.BaseKey() != DefaultBaseKey {
		t.Errorf("BaseKey() = %q after empty set, expected default", engine.BaseKey())
	}
}

func TestIsDueByDate(t *testing.T) {
	now := time.UnixMilli(10 * MillisPerDay)

	tests := []struct {
		name      string
		millis    int64
		threshold int
		expected  bool
	}{
		{"zero threshold, same instant", now.UnixMilli(), 0, true},
		{"zero threshold, past", 0, 0, true},
		{"exactly threshold", now.UnixMilli() - 2*MillisPerDay, 2, true},
		{"one ms short", now.UnixMilli() - 2*MillisPerDay + 1, 2, false},
		{"well past", 0, 2, true},
		{"future timestamp", now.UnixMilli() + 1, 0, false},
		{"future timestamp, threshold", now.UnixMilli() + MillisPerDay, 1, false},
		{"huge threshold is capped, not wrapped", 0, 200_000_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDueByDate(now, tt.millis, tt.threshold); got != tt.expected {
				t.Errorf("IsDueByDate(%d, %d) = %v, expected %v", tt.millis, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestIsDueByDate_Monotonic(t *testing.T) {
	millis := int64(5 * MillisPerDay)
	for threshold := 0; threshold < 5; threshold++ {
		wasDue := false
		for elapsed := int64(0); elapsed <= 6*MillisPerDay; elapsed += MillisPerDay / 4 {
			due := IsDueByDate(time.UnixMilli(millis+elapsed), millis, threshold)
			if wasDue && !due {
				t.Fatalf("threshold %d: due flipped back to false at elapsed %d", threshold, elapsed)
			}
			wasDue = due
		}
	}
}

func TestEngine_FreshStateNotDue(t *testing.T) {
	ctx := context.Background()
	engine, prefs, _ := setupTestEngine(t, DefaultConfig())

	first, err := engine.IsFirstLaunch(ctx)
	if err != nil || !first {
		t.Errorf("IsFirstLaunch() = %v, %v; expected true", first, err)
	}

	ev, err := engine.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !ev.Requesting {
		t.Error("Requesting should default to true")
	}
	if !ev.DueRating {
		t.Error("DueRating should be true with firstLaunch at epoch 0")
	}
	if ev.DueCount {
		t.Error("DueCount should be false with no launches")
	}
	if ev.DueReminder {
		t.Error("DueReminder should be false right after construction")
	}
	if ev.ShouldPrompt {
		t.Error("ShouldPrompt should be false on fresh state")
	}

	// Checks never write
	if n := prefs.Backend().(*preferences.MemoryBackend).Len(Partition); n != 0 {
		t.Errorf("due-checks wrote %d keys, expected none", n)
	}
}

func TestEngine_ReminderBaselineIsStable(t *testing.T) {
	ctx := context.Background()
	engine, _, clock := setupTestEngine(t, Config{RemindInterval: 2})

	due, _ := engine.IsDueReminder(ctx)
	if due {
		t.Fatal("IsDueReminder() = true at construction")
	}

	clock.Advance(2 * day)
	due, _ = engine.IsDueReminder(ctx)
	if !due {
		t.Error("IsDueReminder() = false two days after construction, expected baseline to stay fixed")
	}
}

func TestEngine_InjectedReminderBaseline(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := setupTestEngine(t, Config{RemindInterval: 2, ReminderBaseline: 1})

	due, err := engine.IsDueReminder(ctx)
	if err != nil || !due {
		t.Errorf("IsDueReminder() = %v, %v; expected due with an old baseline", due, err)
	}
}

func TestEngine_ZeroThresholds(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := setupTestEngine(t, Config{})

	should, err := engine.ShouldPrompt(ctx)
	if err != nil {
		t.Fatalf("ShouldPrompt() error = %v", err)
	}
	if !should {
		t.Error("ShouldPrompt() = false with all thresholds 0, expected true")
	}
}

func TestEngine_IntervalsAreCapped(t *testing.T) {
	engine, _, _ := setupTestEngine(t, Config{RateInterval: 200_000_000, RemindInterval: MaxIntervalDays + 1})

	cfg := engine.Config()
	if cfg.RateInterval != MaxIntervalDays || cfg.RemindInterval != MaxIntervalDays {
		t.Errorf("intervals = %d, %d; expected capped to %d", cfg.RateInterval, cfg.RemindInterval, MaxIntervalDays)
	}

	due, err := engine.IsDueRating(context.Background())
	if err != nil || due {
		t.Errorf("IsDueRating() = %v, %v; expected not due with a capped interval", due, err)
	}
}

func TestStateGroup(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"adr_key_game:user-1_launch_count", "adr_key_game:user-1"},
		{"adr_key_user-1_is_request", "adr_key_user-1"},
		{"adr_key_first_launch", "adr_key"},
		{"custom_last_reminder", "custom"},
		{"unrelated", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StateGroup(tt.key); got != tt.expected {
			t.Errorf("StateGroup(%q) = %q, expected %q", tt.key, got, tt.expected)
		}
	}
}
