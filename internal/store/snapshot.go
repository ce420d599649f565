package store

import (
	"fmt"
	"strings"

	"github.com/daygrid/daygrid/internal/model"
)

// ImportSnapshot replaces the entire local state with the given snapshot.
// The snapshot is validated wholesale before anything changes; a malformed
// import leaves existing state untouched. The remote side receives one
// full:overwrite action instead of per-row actions.
func (s *Store) ImportSnapshot(snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := snap.Validate(); err != nil {
		return fmt.Errorf("store: import rejected: %w", err)
	}
	if dup := firstDuplicateDisplayID(snap.Tasks); dup != "" {
		return fmt.Errorf("store: import rejected: %w: %q", ErrDuplicateDisplayID, dup)
	}
	next := normalize(snap.Clone())
	return s.apply(next, FullOverwrite(next))
}

// Purge clears all user data while keeping the configured vocabulary, and
// resets the remote atomically through one full:overwrite.
func (s *Store) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := model.EmptySnapshot()
	next.AppConfig = s.snap.AppConfig.Clone()
	return s.apply(next, FullOverwrite(next))
}

// ReplaceTasks swaps in a remote-authoritative task collection. Remote-origin
// writes persist locally but never emit sync actions.
func (s *Store) ReplaceTasks(tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	next.Tasks = make([]model.Task, len(tasks))
	for i, t := range tasks {
		next.Tasks[i] = t.Clone()
	}
	return s.applySilent(next)
}

// ReplaceLogs swaps in a remote-authoritative log collection.
func (s *Store) ReplaceLogs(logs []model.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	next.Logs = append([]model.DailyLog{}, logs...)
	return s.applySilent(next)
}

// ReplaceObservations swaps in a remote-authoritative observation collection.
func (s *Store) ReplaceObservations(obs []model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	next.Observations = make([]model.Observation, len(obs))
	for i, o := range obs {
		next.Observations[i] = o
		next.Observations[i].Images = append([]string(nil), o.Images...)
	}
	return s.applySilent(next)
}

// ReplaceSettings swaps in the remote-authoritative config and off-day set.
func (s *Store) ReplaceSettings(cfg model.AppConfig, offDays []model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	if !cfg.IsZero() {
		next.AppConfig = cfg.Clone()
	}
	next.OffDays = append([]model.Date{}, offDays...)
	return s.applySilent(next)
}

func firstDuplicateDisplayID(tasks []model.Task) string {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		key := strings.ToLower(t.DisplayID)
		if seen[key] {
			return t.DisplayID
		}
		seen[key] = true
	}
	return ""
}

func normalize(snap model.Snapshot) model.Snapshot {
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}
	if snap.Logs == nil {
		snap.Logs = []model.DailyLog{}
	}
	if snap.Observations == nil {
		snap.Observations = []model.Observation{}
	}
	if snap.OffDays == nil {
		snap.OffDays = []model.Date{}
	}
	if snap.AppConfig.IsZero() {
		snap.AppConfig = model.DefaultConfig()
	}
	return snap
}
