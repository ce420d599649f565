// Package backup writes periodic JSON snapshots of the full local state and
// reads them back for import. It works against an afero.Fs so tests run on
// an in-memory filesystem.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/daygrid/daygrid/internal/model"
)

const snapshotPrefix = "daygrid-"

// Snapshotter is the slice of the entity store the exporter needs.
type Snapshotter interface {
	Snapshot() model.Snapshot
}

type Exporter struct {
	fs   afero.Fs
	dir  string
	src  Snapshotter
	keep int
	log  *slog.Logger
	now  func() time.Time
}

// NewExporter keeps at most keep snapshots in dir, oldest pruned first.
// keep <= 0 disables pruning.
func NewExporter(fs afero.Fs, dir string, src Snapshotter, keep int, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{fs: fs, dir: dir, src: src, keep: keep, log: logger, now: time.Now}
}

// Export writes one snapshot file and returns its path. The write goes
// through a temp file and a rename so a crash never leaves a torn snapshot.
func (e *Exporter) Export() (string, error) {
	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}

	snap := e.src.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("backup: encode snapshot: %w", err)
	}

	name := snapshotPrefix + e.now().UTC().Format("20060102-150405") + ".json"
	path := filepath.Join(e.dir, name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(e.fs, tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", tmp, err)
	}
	if err := e.fs.Rename(tmp, path); err != nil {
		_ = e.fs.Remove(tmp)
		return "", fmt.Errorf("backup: finalize %s: %w", path, err)
	}

	if err := e.prune(); err != nil {
		e.log.Warn("prune old snapshots", "error", err)
	}
	return path, nil
}

// Run exports on every tick until the context is cancelled.
func (e *Exporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			path, err := e.Export()
			if err != nil {
				e.log.Error("scheduled backup failed", "error", err)
				continue
			}
			e.log.Info("snapshot written", "path", path)
		}
	}
}

// List returns the snapshot paths in dir, oldest first. The timestamped
// names make lexical order chronological.
func (e *Exporter) List() ([]string, error) {
	infos, err := afero.ReadDir(e.fs, e.dir)
	if err != nil {
		return nil, fmt.Errorf("backup: read dir: %w", err)
	}
	var paths []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(e.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

func (e *Exporter) prune() error {
	if e.keep <= 0 {
		return nil
	}
	paths, err := e.List()
	if err != nil {
		return err
	}
	for len(paths) > e.keep {
		if err := e.fs.Remove(paths[0]); err != nil {
			return err
		}
		paths = paths[1:]
	}
	return nil
}

// ReadSnapshot loads one exported snapshot for import.
func ReadSnapshot(fs afero.Fs, path string) (model.Snapshot, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("backup: read %s: %w", path, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("backup: decode %s: %w", path, err)
	}
	return snap, nil
}
