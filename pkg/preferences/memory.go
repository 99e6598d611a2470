// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"sync"
)

// MemoryBackend is a process-local Backend. Nothing survives a restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, partition, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[partition][key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, partition, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.data[partition]
	if !ok {
		p = make(map[string]string)
		m.data[partition] = p
	}
	p[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, partition, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[partition], key)
	return nil
}

func (m *MemoryBackend) Clear(_ context.Context, partition string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, partition)
	return nil
}

// Len returns the number of keys stored in a partition.
func (m *MemoryBackend) Len(partition string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data[partition])
}

var _ Backend = (*MemoryBackend)(nil)
