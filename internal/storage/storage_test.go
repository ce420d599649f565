package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/daygrid/daygrid/internal/model"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daygrid-test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, KeyTheme, []byte(`{"name":"dark"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get(ctx, KeyTheme)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"name":"dark"}` {
		t.Fatalf("get = %s", got)
	}

	// Overwrite replaces the value.
	if err := db.Put(ctx, KeyTheme, []byte(`{"name":"light"}`)); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}
	got, err = db.Get(ctx, KeyTheme)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(got) != `{"name":"light"}` {
		t.Fatalf("get after overwrite = %s", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	db := setupDB(t)
	if _, err := db.Get(context.Background(), "never-written"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotPersistence(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	snap, found, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load fresh: %v", err)
	}
	if found {
		t.Fatal("fresh database reported a stored snapshot")
	}
	if snap.AppConfig.IsZero() {
		t.Fatal("fresh snapshot should carry the default vocabulary")
	}

	due, err := model.ParseDate("2024-02-01")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	snap.Tasks = append(snap.Tasks, model.Task{
		ID:          "t1",
		DisplayID:   "DG-1",
		Description: "persist me",
		DueDate:     due,
		Status:      "not-started",
		CreatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	})
	snap.OffDays = append(snap.OffDays, due)

	if err := db.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, found, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if !found {
		t.Fatal("saved snapshot not found")
	}
	if !reflect.DeepEqual(snap, back) {
		t.Fatalf("snapshot round trip mismatch:\nsaved  %+v\nloaded %+v", snap, back)
	}
}

func TestThemePersistence(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	_, found, err := db.LoadTheme(ctx)
	if err != nil {
		t.Fatalf("load fresh theme: %v", err)
	}
	if found {
		t.Fatal("fresh database reported a stored theme")
	}

	if err := db.SaveTheme(ctx, "light"); err != nil {
		t.Fatalf("save theme: %v", err)
	}
	name, found, err := db.LoadTheme(ctx)
	if err != nil {
		t.Fatalf("load theme: %v", err)
	}
	if !found || name != "light" {
		t.Fatalf("theme = %q found %v, want light", name, found)
	}
}

func TestMigrateDownRemovesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daygrid-test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateDown(db.db); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if _, err := db.Get(context.Background(), KeySnapshot); err == nil {
		t.Fatal("expected error after dropping datasets table")
	}
}
