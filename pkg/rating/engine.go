// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rating

import (
	"context"
	"errors"
	"time"

	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/sirupsen/logrus"
)

// ErrInitialization is returned when an engine is built without a preference store.
var ErrInitialization = errors.New("rating: preferences must not be nil")

// Config configures an Engine. Thresholds are not persisted.
type Config struct {
	BaseKey        string
	RateInterval   int // minimum days since first launch
	RateCount      int // minimum launches
	RemindInterval int // minimum days since the last reminder

	// ReminderBaseline is the last reminder time (ms epoch) assumed while none
	// is stored. Zero means the clock reading when the engine is built.
	ReminderBaseline int64

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns a Config with the default base key and thresholds.
func DefaultConfig() Config {
	return Config{
		BaseKey:        DefaultBaseKey,
		RateInterval:   DefaultRateInterval,
		RateCount:      DefaultRateCount,
		RemindInterval: DefaultRemindInterval,
	}
}

// Engine decides whether to ask for a rating and records the user's answer.
//
// All state lives in the preference store under Partition, keyed by the base
// key, so engines with different base keys never interfere. An Engine is not
// safe for concurrent use against the same base key.
type Engine struct {
	prefs          *preferences.Preferences
	baseKey        string
	rateInterval   int
	rateCount      int
	remindInterval int
	baseline       int64
	clock          func() time.Time
}

// NewEngine creates a rating engine backed by prefs.
func NewEngine(prefs *preferences.Preferences, cfg Config) (*Engine, error) {
	if prefs == nil {
		return nil, ErrInitialization
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	baseline := cfg.ReminderBaseline
	if baseline == 0 {
		baseline = clock().UnixMilli()
	}

	e := &Engine{
		prefs:    prefs,
		baseline: baseline,
		clock:    clock,
	}
	return e.SetBaseKey(cfg.BaseKey).
		SetRateInterval(cfg.RateInterval).
		SetRateCount(cfg.RateCount).
		SetRemindInterval(cfg.RemindInterval), nil
}

// SetBaseKey sets the key prefix. An empty key selects DefaultBaseKey.
func (e *Engine) SetBaseKey(baseKey string) *Engine {
	e.baseKey = baseKey
	return e
}

// SetRateInterval sets the minimum days since first launch.
func (e *Engine) SetRateInterval(days int) *Engine {
	e.rateInterval = clampDays(days)
	return e
}

// SetRateCount sets the minimum launch count.
func (e *Engine) SetRateCount(count int) *Engine {
	e.rateCount = max(count, 0)
	return e
}

// SetRemindInterval sets the minimum days since the last reminder.
func (e *Engine) SetRemindInterval(days int) *Engine {
	e.remindInterval = clampDays(days)
	return e
}

// BaseKey returns the key prefix in use.
func (e *Engine) BaseKey() string {
	if e.baseKey == "" {
		return DefaultBaseKey
	}
	return e.baseKey
}

// Key returns suffix prefixed with the base key, for callers storing
// auxiliary data under the same namespace.
func (e *Engine) Key(suffix string) string {
	return e.BaseKey() + suffix
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return Config{
		BaseKey:          e.BaseKey(),
		RateInterval:     e.rateInterval,
		RateCount:        e.rateCount,
		RemindInterval:   e.remindInterval,
		ReminderBaseline: e.baseline,
		Clock:            e.clock,
	}
}

// IsDueByDate reports whether at least thresholdDays have passed between
// millis and now. A timestamp in the future is never due.
func IsDueByDate(now time.Time, millis int64, thresholdDays int) bool {
	return now.UnixMilli()-millis >= int64(clampDays(thresholdDays))*MillisPerDay
}

func clampDays(days int) int {
	return min(max(days, 0), MaxIntervalDays)
}

// IsFirstLaunch reports whether no session has been recorded yet.
func (e *Engine) IsFirstLaunch(ctx context.Context) (bool, error) {
	first, err := e.firstLaunch(ctx)
	if err != nil {
		return false, err
	}
	return first == DefaultFirstLaunch, nil
}

// IsDueRating checks whether the rate interval has passed since the first launch.
func (e *Engine) IsDueRating(ctx context.Context) (bool, error) {
	first, err := e.firstLaunch(ctx)
	if err != nil {
		return false, err
	}
	return IsDueByDate(e.clock(), first, e.rateInterval), nil
}

// IsDueCount checks whether the launch count reached the threshold.
func (e *Engine) IsDueCount(ctx context.Context) (bool, error) {
	count, err := e.launchCount(ctx)
	if err != nil {
		return false, err
	}
	return count >= e.rateCount, nil
}

// IsDueReminder checks whether the remind interval has passed since the last reminder.
func (e *Engine) IsDueReminder(ctx context.Context) (bool, error) {
	last, err := e.lastReminder(ctx)
	if err != nil {
		return false, err
	}
	return IsDueByDate(e.clock(), last, e.remindInterval), nil
}

// ShouldPrompt reports whether every rating condition is met.
// Every check is evaluated; none of them writes state.
func (e *Engine) ShouldPrompt(ctx context.Context) (bool, error) {
	d, err := e.Evaluate(ctx)
	if err != nil {
		return false, err
	}
	return d.ShouldPrompt, nil
}

// Evaluation is the outcome of every due-check at one instant.
type Evaluation struct {
	ShouldPrompt bool `json:"shouldPrompt"`
	Requesting   bool `json:"requesting"`
	DueRating    bool `json:"dueRating"`
	DueCount     bool `json:"dueCount"`
	DueReminder  bool `json:"dueReminder"`
}

// Evaluate runs all due-checks and combines them like ShouldPrompt.
func (e *Engine) Evaluate(ctx context.Context) (Evaluation, error) {
	var ev Evaluation
	var err error

	if ev.Requesting, err = e.isRequest(ctx); err != nil {
		return Evaluation{}, err
	}
	if ev.DueRating, err = e.IsDueRating(ctx); err != nil {
		return Evaluation{}, err
	}
	if ev.DueCount, err = e.IsDueCount(ctx); err != nil {
		return Evaluation{}, err
	}
	if ev.DueReminder, err = e.IsDueReminder(ctx); err != nil {
		return Evaluation{}, err
	}
	ev.ShouldPrompt = ev.Requesting && ev.DueRating && ev.DueCount && ev.DueReminder

	logrus.Debugf("rating evaluation for %s: requesting=%v dueRating=%v dueCount=%v dueReminder=%v",
		e.BaseKey(), ev.Requesting, ev.DueRating, ev.DueCount, ev.DueReminder)

	return ev, nil
}

func (e *Engine) firstLaunch(ctx context.Context) (int64, error) {
	return e.prefs.LoadInt64(ctx, Partition, e.Key(KeyFirstLaunch), DefaultFirstLaunch)
}

func (e *Engine) setFirstLaunch(ctx context.Context, millis int64) error {
	return e.prefs.SaveInt64(ctx, Partition, e.Key(KeyFirstLaunch), millis)
}

func (e *Engine) lastLaunch(ctx context.Context) (int64, error) {
	return e.prefs.LoadInt64(ctx, Partition, e.Key(KeyLastLaunch), DefaultLastLaunch)
}

func (e *Engine) setLastLaunch(ctx context.Context, millis int64) error {
	return e.prefs.SaveInt64(ctx, Partition, e.Key(KeyLastLaunch), millis)
}

func (e *Engine) lastReminder(ctx context.Context) (int64, error) {
	return e.prefs.LoadInt64(ctx, Partition, e.Key(KeyLastReminder), e.baseline)
}

func (e *Engine) setLastReminder(ctx context.Context, millis int64) error {
	return e.prefs.SaveInt64(ctx, Partition, e.Key(KeyLastReminder), millis)
}

func (e *Engine) launchCount(ctx context.Context) (int, error) {
	return e.prefs.LoadInt(ctx, Partition, e.Key(KeyLaunchCount), DefaultLaunchCount)
}

func (e *Engine) setLaunchCount(ctx context.Context, count int) error {
	return e.prefs.SaveInt(ctx, Partition, e.Key(KeyLaunchCount), count)
}

func (e *Engine) isRequest(ctx context.Context) (bool, error) {
	return e.prefs.LoadBool(ctx, Partition, e.Key(KeyIsRequest), DefaultIsRequest)
}

func (e *Engine) setRequest(ctx context.Context, request bool) error {
	return e.prefs.SaveBool(ctx, Partition, e.Key(KeyIsRequest), request)
}
