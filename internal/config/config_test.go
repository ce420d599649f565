package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataDir == "" {
		t.Fatal("data dir not defaulted")
	}
	if cfg.SyncEnabled() {
		t.Fatal("sync should be off by default")
	}
	if cfg.BackupKeep != 10 || cfg.BackupInterval != 15*time.Minute {
		t.Fatalf("backup defaults = keep %d interval %s", cfg.BackupKeep, cfg.BackupInterval)
	}
	if cfg.BackupDir != filepath.Join(cfg.DataDir, "backups") {
		t.Fatalf("backup dir = %s", cfg.BackupDir)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.DataDir, "daygrid.db") {
		t.Fatalf("database path = %s", cfg.DatabasePath())
	}
	if cfg.Theme != "" {
		t.Fatalf("theme = %q, want empty (resolved against stored theme at startup)", cfg.Theme)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "data_dir: /srv/daygrid\nremote_url: http://sync.local:8787\nbackup_interval: 1h\ntheme: light\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataDir != "/srv/daygrid" {
		t.Fatalf("data dir = %s", cfg.DataDir)
	}
	if !cfg.SyncEnabled() || cfg.RemoteURL != "http://sync.local:8787" {
		t.Fatalf("remote url = %s", cfg.RemoteURL)
	}
	if cfg.BackupInterval != time.Hour {
		t.Fatalf("backup interval = %s", cfg.BackupInterval)
	}
	if cfg.Theme != "light" {
		t.Fatalf("theme = %s", cfg.Theme)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("theme: light\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DAYGRID_THEME", "dark")
	t.Setenv("DAYGRID_REMOTE_URL", "http://env.local")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Theme != "dark" {
		t.Fatalf("theme = %s, env override lost", cfg.Theme)
	}
	if cfg.RemoteURL != "http://env.local" {
		t.Fatalf("remote url = %s", cfg.RemoteURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "interval.yaml")
	if err := os.WriteFile(path, []byte("backup_interval: -5m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative interval")
	}

	path = filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}
