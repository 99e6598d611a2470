// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ErrNilBackend is returned when Preferences is built without a backend.
var ErrNilBackend = errors.New("preferences: backend is nil")

// Backend is a durable key-value store partitioned by name.
// Values are stored as strings; typed access lives in Preferences.
//
// You may not need to implement your own backend: memory, Redis, SQLite and
// JSON file implementations are provided in this package.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, partition, key string) (string, bool, error)

	// Set stores the value, replacing any previous one.
	Set(ctx context.Context, partition, key, value string) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, partition, key string) error

	// Clear removes every key of the partition.
	Clear(ctx context.Context, partition string) error
}

// Preferences provides typed load/save/delete with defaults on top of a Backend.
type Preferences struct {
	backend Backend
}

// New creates a typed preferences façade.
func New(backend Backend) (*Preferences, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	return &Preferences{backend: backend}, nil
}

// Backend returns the underlying backend.
func (p *Preferences) Backend() Backend {
	return p.backend
}

// LoadInt64 returns the stored int64 or def when the key is missing or unreadable.
func (p *Preferences) LoadInt64(ctx context.Context, partition, key string, def int64) (int64, error) {
	raw, found, err := p.backend.Get(ctx, partition, key)
	if err != nil {
		return def, fmt.Errorf("failed to load %s/%s: %w", partition, key, err)
	}
	if !found {
		return def, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logrus.Warnf("ignoring unreadable value %q for %s/%s: %v", raw, partition, key, err)
		return def, nil
	}
	return v, nil
}

// LoadInt returns the stored int or def when the key is missing or unreadable.
func (p *Preferences) LoadInt(ctx context.Context, partition, key string, def int) (int, error) {
	v, err := p.LoadInt64(ctx, partition, key, int64(def))
	return int(v), err
}

// LoadBool returns the stored bool or def when the key is missing or unreadable.
func (p *Preferences) LoadBool(ctx context.Context, partition, key string, def bool) (bool, error) {
	raw, found, err := p.backend.Get(ctx, partition, key)
	if err != nil {
		return def, fmt.Errorf("failed to load %s/%s: %w", partition, key, err)
	}
	if !found {
		return def, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.Warnf("ignoring unreadable value %q for %s/%s: %v", raw, partition, key, err)
		return def, nil
	}
	return v, nil
}

// SaveInt64 stores an int64 value.
func (p *Preferences) SaveInt64(ctx context.Context, partition, key string, value int64) error {
	if err := p.backend.Set(ctx, partition, key, strconv.FormatInt(value, 10)); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", partition, key, err)
	}
	return nil
}

// SaveInt stores an int value.
func (p *Preferences) SaveInt(ctx context.Context, partition, key string, value int) error {
	return p.SaveInt64(ctx, partition, key, int64(value))
}

// SaveBool stores a bool value.
func (p *Preferences) SaveBool(ctx context.Context, partition, key string, value bool) error {
	if err := p.backend.Set(ctx, partition, key, strconv.FormatBool(value)); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", partition, key, err)
	}
	return nil
}

// Delete removes a key so later loads fall back to their defaults.
func (p *Preferences) Delete(ctx context.Context, partition, key string) error {
	if err := p.backend.Delete(ctx, partition, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", partition, key, err)
	}
	return nil
}

// Clear wipes a whole partition.
func (p *Preferences) Clear(ctx context.Context, partition string) error {
	if err := p.backend.Clear(ctx, partition); err != nil {
		return fmt.Errorf("failed to clear %s: %w", partition, err)
	}
	logrus.Infof("cleared preferences partition %s", partition)
	return nil
}
