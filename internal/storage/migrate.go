package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrateUp applies every up migration in lexical order. Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) so re-running on an existing
// database is safe.
func MigrateUp(db *sql.DB) error {
	scripts, err := migrationScripts(".up.sql")
	if err != nil {
		return err
	}
	return runScripts(db, scripts)
}

// MigrateDown reverts the schema, newest migration first.
func MigrateDown(db *sql.DB) error {
	scripts, err := migrationScripts(".down.sql")
	if err != nil {
		return err
	}
	for i, j := 0, len(scripts)-1; i < j; i, j = i+1, j-1 {
		scripts[i], scripts[j] = scripts[j], scripts[i]
	}
	return runScripts(db, scripts)
}

func migrationScripts(suffix string) ([]string, error) {
	scripts, err := fs.Glob(migrationFS, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(scripts)
	return scripts, nil
}

func runScripts(db *sql.DB, scripts []string) error {
	for _, name := range scripts {
		stmt, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
