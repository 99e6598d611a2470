// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend persists every partition to a single JSON file.
// Suitable for a single device or the CLI; every write rewrites the file.
type FileBackend struct {
	path string
	mu   sync.Mutex
	data map[string]map[string]string
}

// OpenFileBackend loads path if it exists or starts empty otherwise.
func OpenFileBackend(path string) (*FileBackend, error) {
	f := &FileBackend{path: path, data: make(map[string]map[string]string)}
	if err := f.load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load preference file %s: %w", path, err)
	}
	return f, nil
}

func (f *FileBackend) load() error {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &f.data); err != nil {
		return err
	}
	// A "null" document or partition decodes to a nil map.
	if f.data == nil {
		f.data = make(map[string]map[string]string)
	}
	for partition, values := range f.data {
		if values == nil {
			delete(f.data, partition)
		}
	}
	return nil
}

// persist writes through a temp file renamed into place.
func (f *FileBackend) persist() error {
	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileBackend) Get(_ context.Context, partition, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[partition][key]
	return v, ok, nil
}

func (f *FileBackend) Set(_ context.Context, partition, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := maps.Clone(f.data[partition])
	if next == nil {
		next = make(map[string]string)
	}
	next[key] = value
	return f.commit(partition, next)
}

func (f *FileBackend) Delete(_ context.Context, partition, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[partition][key]; !ok {
		return nil
	}
	next := maps.Clone(f.data[partition])
	delete(next, key)
	return f.commit(partition, next)
}

func (f *FileBackend) Clear(_ context.Context, partition string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[partition]; !ok {
		return nil
	}
	return f.commit(partition, nil)
}

// commit swaps in the next contents of partition, nil removing it, and
// restores the previous contents if the file cannot be written.
func (f *FileBackend) commit(partition string, next map[string]string) error {
	prev, had := f.data[partition]
	if next == nil {
		delete(f.data, partition)
	} else {
		f.data[partition] = next
	}

	if err := f.persist(); err != nil {
		if had {
			f.data[partition] = prev
		} else {
			delete(f.data, partition)
		}
		return err
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
