// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

// backends returns every Backend implementation under a common name.
func backends(t *testing.T) map[string]Backend {
	t.Helper()

	client, mr := setupTestRedis(t)
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	sqlite, err := OpenSQLiteBackend(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteBackend() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	file, err := OpenFileBackend(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("OpenFileBackend() error = %v", err)
	}

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"redis":  NewRedisBackend(client, RedisBackendConfig{}),
		"sqlite": sqlite,
		"file":   file,
	}
}

func TestBackends_GetSetDelete(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, found, err := backend.Get(ctx, "p", "missing"); err != nil || found {
				t.Fatalf("Get(missing) = found %v, err %v; expected not found", found, err)
			}

			if err := backend.Set(ctx, "p", "k", "v1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := backend.Set(ctx, "p", "k", "v2"); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}

			v, found, err := backend.Get(ctx, "p", "k")
			if err != nil || !found || v != "v2" {
				t.Errorf("Get() = %q, %v, %v; expected \"v2\", true, nil", v, found, err)
			}

			// Same key in another partition is independent
			if _, found, _ := backend.Get(ctx, "other", "k"); found {
				t.Error("key leaked into another partition")
			}

			if err := backend.Delete(ctx, "p", "k"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, found, _ := backend.Get(ctx, "p", "k"); found {
				t.Error("key still present after Delete()")
			}

			// Deleting a missing key is not an error
			if err := backend.Delete(ctx, "p", "k"); err != nil {
				t.Errorf("Delete() of missing key error = %v", err)
			}
		})
	}
}

func TestBackends_Clear(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, k := range []string{"a", "b"} {
				if err := backend.Set(ctx, "wipe", k, "1"); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}
			if err := backend.Set(ctx, "keep", "a", "1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			if err := backend.Clear(ctx, "wipe"); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}

			for _, k := range []string{"a", "b"} {
				if _, found, _ := backend.Get(ctx, "wipe", k); found {
					t.Errorf("key %s survived Clear()", k)
				}
			}
			if _, found, _ := backend.Get(ctx, "keep", "a"); !found {
				t.Error("Clear() removed a key from another partition")
			}
		})
	}
}

func TestNew_NilBackend(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilBackend) {
		t.Errorf("New(nil) error = %v, expected ErrNilBackend", err)
	}
}

func TestPreferences_TypedDefaults(t *testing.T) {
	ctx := context.Background()
	prefs, err := New(NewMemoryBackend())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if v, err := prefs.LoadInt64(ctx, "p", "ts", 42); err != nil || v != 42 {
		t.Errorf("LoadInt64() = %d, %v; expected default 42", v, err)
	}
	if v, err := prefs.LoadInt(ctx, "p", "count", 7); err != nil || v != 7 {
		t.Errorf("LoadInt() = %d, %v; expected default 7", v, err)
	}
	if v, err := prefs.LoadBool(ctx, "p", "flag", true); err != nil || !v {
		t.Errorf("LoadBool() = %v, %v; expected default true", v, err)
	}
}

func TestPreferences_RoundTrip(t *testing.T) {
	ctx := context.Background()
	prefs, _ := New(NewMemoryBackend())

	if err := prefs.SaveInt64(ctx, "p", "ts", 1700000000000); err != nil {
		t.Fatalf("SaveInt64() error = %v", err)
	}
	if err := prefs.SaveInt(ctx, "p", "count", 3); err != nil {
		t.Fatalf("SaveInt() error = %v", err)
	}
	if err := prefs.SaveBool(ctx, "p", "flag", false); err != nil {
		t.Fatalf("SaveBool() error = %v", err)
	}

	if v, _ := prefs.LoadInt64(ctx, "p", "ts", 0); v != 1700000000000 {
		t.Errorf("LoadInt64() = %d, expected 1700000000000", v)
	}
	if v, _ := prefs.LoadInt(ctx, "p", "count", 0); v != 3 {
		t.Errorf("LoadInt() = %d, expected 3", v)
	}
	if v, _ := prefs.LoadBool(ctx, "p", "flag", true); v {
		t.Error("LoadBool() = true, expected false")
	}

	if err := prefs.Delete(ctx, "p", "count"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if v, _ := prefs.LoadInt(ctx, "p", "count", 0); v != 0 {
		t.Errorf("LoadInt() after Delete() = %d, expected default 0", v)
	}
}

func TestPreferences_UnreadableValueFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	prefs, _ := New(backend)

	_ = backend.Set(ctx, "p", "count", "not-a-number")
	_ = backend.Set(ctx, "p", "flag", "maybe")

	if v, err := prefs.LoadInt(ctx, "p", "count", 5); err != nil || v != 5 {
		t.Errorf("LoadInt() = %d, %v; expected default 5", v, err)
	}
	if v, err := prefs.LoadBool(ctx, "p", "flag", true); err != nil || !v {
		t.Errorf("LoadBool() = %v, %v; expected default true", v, err)
	}
}

func TestPreferences_BackendErrorIsWrapped(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	prefs, _ := New(NewRedisBackend(client, RedisBackendConfig{}))
	mr.Close()

	v, err := prefs.LoadInt64(context.Background(), "p", "ts", 9)
	if err == nil {
		t.Fatal("LoadInt64() expected error with Redis down")
	}
	if v != 9 {
		t.Errorf("LoadInt64() on error = %d, expected default 9", v)
	}
}

func TestRedisBackend_LayoutAndTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	backend := NewRedisBackend(client, RedisBackendConfig{KeyPrefix: "test:", TTL: time.Hour})

	if err := backend.Set(ctx, "dynamic_rating", "adr_key_launch_count", "2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := mr.HGet("test:dynamic_rating", "adr_key_launch_count"); got != "2" {
		t.Errorf("hash field = %q, expected \"2\"", got)
	}
	if ttl := mr.TTL("test:dynamic_rating"); ttl <= 0 {
		t.Errorf("TTL = %v, expected positive TTL", ttl)
	}
}

func TestRedisBackend_GroupedHashes(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	backend := NewRedisBackend(client, RedisBackendConfig{
		KeyPrefix: "test:",
		TTL:       time.Hour,
		Group: func(key string) string {
			group, _, _ := strings.Cut(key, "/")
			return group
		},
	})

	if err := backend.Set(ctx, "p", "u1/count", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	mr.FastForward(30 * time.Minute)
	if err := backend.Set(ctx, "p", "u2/count", "2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := backend.Set(ctx, "p2", "u1/count", "3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := mr.HGet("test:p:u1", "u1/count"); got != "1" {
		t.Errorf("u1 hash field = %q, expected \"1\"", got)
	}
	if got := mr.HGet("test:p:u2", "u2/count"); got != "2" {
		t.Errorf("u2 hash field = %q, expected \"2\"", got)
	}
	if mr.Exists("test:p") {
		t.Error("grouped keys were written to the partition hash")
	}

	// Writing u2 does not extend u1
	if ttl1, ttl2 := mr.TTL("test:p:u1"), mr.TTL("test:p:u2"); ttl1 >= ttl2 {
		t.Errorf("TTL u1 = %v, u2 = %v; expected independent expiry", ttl1, ttl2)
	}
	mr.FastForward(45 * time.Minute)
	if _, found, _ := backend.Get(ctx, "p", "u1/count"); found {
		t.Error("u1 survived its TTL")
	}
	if v, found, _ := backend.Get(ctx, "p", "u2/count"); !found || v != "2" {
		t.Errorf("u2 Get() = %q, %v; expected \"2\", true", v, found)
	}

	if err := backend.Clear(ctx, "p"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if mr.Exists("test:p:u2") {
		t.Error("Clear() left a group hash")
	}
	if v, found, _ := backend.Get(ctx, "p2", "u1/count"); !found || v != "3" {
		t.Errorf("Clear() touched another partition: Get() = %q, %v", v, found)
	}
}

func TestRedisBackend_ClearManyGroups(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	backend := NewRedisBackend(client, RedisBackendConfig{
		Group: func(key string) string { return key },
	})

	for i := 0; i < 3*redisScanCount; i++ {
		if err := backend.Set(ctx, "p", strconv.Itoa(i), "1"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if err := backend.Clear(ctx, "p"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("Clear() left %d keys, e.g. %s", len(keys), keys[0])
	}
}

func TestFileBackend_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	first, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("OpenFileBackend() error = %v", err)
	}
	if err := first.Set(ctx, "dynamic_rating", "adr_key_is_request", "false"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	second, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("OpenFileBackend() reopen error = %v", err)
	}
	v, found, _ := second.Get(ctx, "dynamic_rating", "adr_key_is_request")
	if !found || v != "false" {
		t.Errorf("reopened Get() = %q, %v; expected \"false\", true", v, found)
	}
}

func TestFileBackend_NullDocument(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{"null document", "null"},
		{"null partition", `{"dynamic_rating": null}`},
		{"empty object", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			backend, err := OpenFileBackend(path)
			if err != nil {
				t.Fatalf("OpenFileBackend() error = %v", err)
			}
			if _, found, _ := backend.Get(ctx, "dynamic_rating", "adr_key_launch_count"); found {
				t.Error("Get() found a value in an empty document")
			}
			if err := backend.Set(ctx, "dynamic_rating", "adr_key_launch_count", "1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			v, found, _ := backend.Get(ctx, "dynamic_rating", "adr_key_launch_count")
			if !found || v != "1" {
				t.Errorf("Get() = %q, %v; expected \"1\", true", v, found)
			}
		})
	}
}

func TestFileBackend_FailedWriteKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.json")

	backend, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("OpenFileBackend() error = %v", err)
	}
	if err := backend.Set(ctx, "dynamic_rating", "adr_key_launch_count", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A directory at the temp path makes every write fail.
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	if err := backend.Set(ctx, "dynamic_rating", "adr_key_launch_count", "2"); err == nil {
		t.Error("Set() expected error")
	}
	if err := backend.Set(ctx, "other", "k", "v"); err == nil {
		t.Error("Set() on new partition expected error")
	}
	if err := backend.Delete(ctx, "dynamic_rating", "adr_key_launch_count"); err == nil {
		t.Error("Delete() expected error")
	}
	if err := backend.Clear(ctx, "dynamic_rating"); err == nil {
		t.Error("Clear() expected error")
	}

	v, found, _ := backend.Get(ctx, "dynamic_rating", "adr_key_launch_count")
	if !found || v != "1" {
		t.Errorf("Get() after failed writes = %q, %v; expected \"1\", true", v, found)
	}
	if _, found, _ := backend.Get(ctx, "other", "k"); found {
		t.Error("failed Set() left a new partition in memory")
	}

	if err := os.Remove(path + ".tmp"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	reopened, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("OpenFileBackend() reopen error = %v", err)
	}
	v, found, _ = reopened.Get(ctx, "dynamic_rating", "adr_key_launch_count")
	if !found || v != "1" {
		t.Errorf("reopened Get() = %q, %v; expected \"1\", true", v, found)
	}
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	first, err := OpenSQLiteBackend(path)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend() error = %v", err)
	}
	if err := first.Set(ctx, "dynamic_rating", "adr_key_first_launch", "123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	second, err := OpenSQLiteBackend(path)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend() reopen error = %v", err)
	}
	defer second.Close()

	v, found, _ := second.Get(ctx, "dynamic_rating", "adr_key_first_launch")
	if !found || v != "123" {
		t.Errorf("reopened Get() = %q, %v; expected \"123\", true", v, found)
	}
}

func TestInitRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := InitRedisClient(context.Background(), RedisConfig{
		Host:         mr.Host(),
		Port:         mr.Port(),
		MaxRetries:   2,
		RetryDelayMs: 10,
	})
	if err != nil {
		t.Fatalf("InitRedisClient() error = %v", err)
	}
	defer client.Close()

	checker := NewRedisHealthChecker(client)
	if !checker.IsHealthy(context.Background()) {
		t.Error("IsHealthy() = false, expected true")
	}

	mr.Close()
	if checker.IsHealthy(context.Background()) {
		t.Error("IsHealthy() = true after Redis stopped, expected false")
	}
}

func TestInitRedisClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err = InitRedisClient(context.Background(), RedisConfig{
		Host:         host,
		Port:         port,
		MaxRetries:   2,
		RetryDelayMs: 1,
	})
	if err == nil {
		t.Error("InitRedisClient() expected error for unreachable Redis")
	}
}
