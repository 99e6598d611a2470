// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteBackend stores preferences in a single SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens or creates the database at path and applies migrations.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	backend := &SQLiteBackend{db: db}
	if err := backend.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite database %s: %w", path, err)
	}

	logrus.Infof("opened sqlite preference store at %s", path)
	return backend, nil
}

// Close closes the underlying database.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			partition TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (partition, key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteBackend) Get(ctx context.Context, partition, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE partition = ? AND key = ?`,
		partition, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query preference: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, partition, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (partition, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(partition, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		partition, key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, partition, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE partition = ? AND key = ?`, partition, key); err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Clear(ctx context.Context, partition string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE partition = ?`, partition); err != nil {
		return fmt.Errorf("failed to clear partition: %w", err)
	}
	return nil
}

var _ Backend = (*SQLiteBackend)(nil)
