// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rating

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// State is a snapshot of the persisted values of one base key.
type State struct {
	FirstLaunchAt  int64 `json:"firstLaunchAt"`
	LastLaunchAt   int64 `json:"lastLaunchAt"`
	LastReminderAt int64 `json:"lastReminderAt"`
	LaunchCount    int   `json:"launchCount"`
	IsRequesting   bool  `json:"isRequesting"`
}

// Initialize records an application session and returns the engine for chaining.
// Call it once per launch.
//
// The first call stamps the first launch time; while the user has not opted
// out, every call also bumps the launch count. The last launch time is stored
// for compatibility but no due-check reads it.
func (e *Engine) Initialize(ctx context.Context) (*Engine, error) {
	now := e.clock().UnixMilli()

	first, err := e.IsFirstLaunch(ctx)
	if err != nil {
		return e, fmt.Errorf("failed to read first launch: %w", err)
	}
	if first {
		if err := e.setFirstLaunch(ctx, now); err != nil {
			return e, err
		}
		logrus.Infof("rating tracking started for %s at %d", e.BaseKey(), now)
	}

	if err := e.setLastLaunch(ctx, now); err != nil {
		return e, err
	}

	requesting, err := e.isRequest(ctx)
	if err != nil {
		return e, fmt.Errorf("failed to read request flag: %w", err)
	}
	if !requesting {
		logrus.Debugf("rating requests disabled for %s, launch not counted", e.BaseKey())
		return e, nil
	}

	count, err := e.launchCount(ctx)
	if err != nil {
		return e, fmt.Errorf("failed to read launch count: %w", err)
	}
	if err := e.setLaunchCount(ctx, count+1); err != nil {
		return e, err
	}
	logrus.Debugf("launch count for %s is now %d", e.BaseKey(), count+1)

	return e, nil
}

// RecordResponse stores the user's answer to a prompt.
//
// remind=true defers the prompt: requests stay enabled and the reminder clock
// restarts. remind=false (rated, gave feedback or declined for good) stops
// requests permanently. Both reset the launch count.
func (e *Engine) RecordResponse(ctx context.Context, remind bool) error {
	now := e.clock().UnixMilli()

	if err := e.setRequest(ctx, remind); err != nil {
		return err
	}
	if err := e.setLastReminder(ctx, now); err != nil {
		return err
	}
	if err := e.prefs.Delete(ctx, Partition, e.Key(KeyLaunchCount)); err != nil {
		return err
	}

	if !remind {
		if err := e.prefs.Delete(ctx, Partition, e.Key(KeyLastReminder)); err != nil {
			return err
		}
		logrus.Infof("rating requests stopped for %s", e.BaseKey())
		return nil
	}

	logrus.Infof("rating reminder set for %s at %d", e.BaseKey(), now)
	return nil
}

// State reads every persisted value, applying defaults for missing keys.
func (e *Engine) State(ctx context.Context) (State, error) {
	var s State
	var err error

	if s.FirstLaunchAt, err = e.firstLaunch(ctx); err != nil {
		return State{}, err
	}
	if s.LastLaunchAt, err = e.lastLaunch(ctx); err != nil {
		return State{}, err
	}
	if s.LastReminderAt, err = e.lastReminder(ctx); err != nil {
		return State{}, err
	}
	if s.LaunchCount, err = e.launchCount(ctx); err != nil {
		return State{}, err
	}
	if s.IsRequesting, err = e.isRequest(ctx); err != nil {
		return State{}, err
	}
	return s, nil
}

// Reset deletes every key of this base key, returning it to a fresh state.
// This is the only way back once requests have been stopped.
func (e *Engine) Reset(ctx context.Context) error {
	for _, suffix := range allKeys {
		if err := e.prefs.Delete(ctx, Partition, e.Key(suffix)); err != nil {
			return err
		}
	}
	logrus.Infof("rating state reset for %s", e.BaseKey())
	return nil
}
