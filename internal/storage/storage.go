// Package storage is the local durable side of the tracker: one sqlite
// database holding one JSON blob per logical dataset. The store writes the
// full snapshot here synchronously on every mutation and reads it back once
// at startup; smaller datasets such as the rendering theme share the same
// table under their own keys.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/daygrid/daygrid/internal/model"
)

const timeLayout = time.RFC3339Nano

// Dataset keys.
const (
	KeySnapshot = "snapshot"
	KeyTheme    = "theme"
)

var ErrNotFound = errors.New("storage: not found")

type DB struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Put writes one dataset blob, replacing any previous value.
func (d *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO datasets (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get reads one dataset blob. ErrNotFound is returned for keys that were
// never written.
func (d *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM datasets WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

// PutJSON marshals v into the dataset.
func (d *DB) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return d.Put(ctx, key, raw)
}

// GetJSON unmarshals the dataset into v.
func (d *DB) GetJSON(ctx context.Context, key string, v any) error {
	raw, err := d.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SaveTheme records the rendering theme last used with this database.
func (d *DB) SaveTheme(ctx context.Context, name string) error {
	return d.PutJSON(ctx, KeyTheme, name)
}

// LoadTheme returns the stored theme; found is false when none was saved.
func (d *DB) LoadTheme(ctx context.Context) (string, bool, error) {
	var name string
	err := d.GetJSON(ctx, KeyTheme, &name)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// Save implements the store's Persister: the full snapshot is written
// whole on every mutation.
func (d *DB) Save(snap model.Snapshot) error {
	return d.PutJSON(context.Background(), KeySnapshot, snap)
}

// LoadSnapshot reads the snapshot written by the last Save. A fresh database
// yields an empty snapshot and found = false.
func (d *DB) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var snap model.Snapshot
	err := d.GetJSON(ctx, KeySnapshot, &snap)
	if errors.Is(err, ErrNotFound) {
		return model.EmptySnapshot(), false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}
