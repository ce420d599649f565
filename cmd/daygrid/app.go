package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/daygrid/daygrid/internal/backup"
	"github.com/daygrid/daygrid/internal/config"
	"github.com/daygrid/daygrid/internal/reconcile"
	"github.com/daygrid/daygrid/internal/remote"
	"github.com/daygrid/daygrid/internal/storage"
	"github.com/daygrid/daygrid/internal/store"
	"github.com/daygrid/daygrid/internal/update"
)

// app wires the persistent layers together: config, local storage, the
// entity store, optional sync, scheduled backups.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	db       *storage.DB
	st       *store.Store
	rec      *reconcile.Reconciler
	exporter *backup.Exporter
	theme    string
	cancel   context.CancelFunc
}

func newApp(cfgFile string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	snap, found, err := db.LoadSnapshot(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !found {
		logger.Info("starting with empty state", "db", cfg.DatabasePath())
	}

	st := store.New(snap, db)

	a := &app{
		cfg:      cfg,
		log:      logger,
		db:       db,
		st:       st,
		exporter: backup.NewExporter(afero.NewOsFs(), cfg.BackupDir, st, cfg.BackupKeep, logger),
		theme:    resolveTheme(db, cfg, logger),
	}
	if cfg.SyncEnabled() {
		a.rec = reconcile.New(st, remote.NewClient(cfg.RemoteURL, logger), logger)
	}
	return a, nil
}

// resolveTheme picks the rendering theme: explicit config wins, then the
// theme stored on a previous run, then "dark". Whatever wins is stored so
// the choice sticks across runs without a config entry.
func resolveTheme(db *storage.DB, cfg config.Config, logger *slog.Logger) string {
	ctx := context.Background()
	theme := cfg.Theme
	if theme == "" {
		stored, found, err := db.LoadTheme(ctx)
		if err != nil {
			logger.Warn("load stored theme", "error", err)
		}
		if found {
			theme = stored
		} else {
			theme = "dark"
		}
	}
	if err := db.SaveTheme(ctx, theme); err != nil {
		logger.Warn("save theme", "error", err)
	}
	return theme
}

// syncController hands the reconciler to the TUI, or nil when no remote is
// configured. The nil check matters: a typed nil inside the interface would
// defeat the TUI's "no remote" guard.
func (a *app) syncController() update.SyncController {
	if a.rec == nil {
		return nil
	}
	return a.rec
}

// startBackups launches the periodic exporter for the lifetime of the app.
func (a *app) startBackups() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.exporter.Run(ctx, a.cfg.BackupInterval)
}

func (a *app) close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.rec != nil {
		a.rec.Disable()
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", "error", err)
	}
}
