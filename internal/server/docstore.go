package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/daygrid/daygrid/internal/remote"
)

const docSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);`

// DocStore is the server-side document table: opaque JSON rows partitioned
// by collection. Batches apply inside one transaction so a commit is visible
// to other devices completely or not at all.
type DocStore struct {
	db *sql.DB
}

func OpenDocStore(path string) (*DocStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.Exec(docSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &DocStore{db: db}, nil
}

func (s *DocStore) Close() error {
	return s.db.Close()
}

// Apply runs one commit batch atomically, in order.
func (s *DocStore) Apply(ctx context.Context, ops []remote.Op) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, op := range ops {
		switch op.Action {
		case remote.OpPut:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
				string(op.Collection), op.ID, string(op.Doc), now,
			)
		case remote.OpDelete:
			_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`,
				string(op.Collection), op.ID)
		case remote.OpClear:
			_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`,
				string(op.Collection))
		default:
			return fmt.Errorf("unknown op action %q", op.Action)
		}
		if err != nil {
			return fmt.Errorf("apply %s %s/%s: %w", op.Action, op.Collection, op.ID, err)
		}
	}
	return tx.Commit()
}

// Snapshot reads the full current state of one collection.
func (s *DocStore) Snapshot(ctx context.Context, c remote.Collection) (remote.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, string(c))
	if err != nil {
		return remote.Event{}, fmt.Errorf("snapshot %s: %w", c, err)
	}
	defer rows.Close()

	ev := remote.Event{Collection: c, Docs: []remote.Document{}}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return remote.Event{}, err
		}
		ev.Docs = append(ev.Docs, remote.Document{ID: id, Data: []byte(data)})
	}
	return ev, rows.Err()
}
