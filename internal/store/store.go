// Package store owns the local state of the tracker: the four entity
// collections and the app config. It is the single writer; every mutation
// validates first, applies synchronously, persists the full snapshot, and
// only then hands the derived sync actions to the recorder. Readers always
// get copies, never aliases into store-owned memory.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/model"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrDuplicateDisplayID = errors.New("store: display id already in use")
	ErrUnknownStatus      = errors.New("store: status not in configured set")
	ErrRecurringDone      = errors.New("store: recurring task cannot hold the done status")
)

// Persister writes the full snapshot to durable local storage. It is called
// synchronously on every mutation.
type Persister interface {
	Save(model.Snapshot) error
}

type Store struct {
	mu       sync.Mutex
	snap     model.Snapshot
	persist  Persister
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

type Option func(*Store)

// WithClock fixes the store's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New builds a store over an initial snapshot, normally the one loaded from
// local storage at startup.
func New(initial model.Snapshot, p Persister, opts ...Option) *Store {
	s := &Store{
		snap:    initial.Clone(),
		persist: p,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	if s.snap.AppConfig.IsZero() {
		s.snap.AppConfig = model.DefaultConfig()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRecorder attaches or detaches the sync action sink. A nil recorder
// drops actions, which is the sync-disabled mode.
func (s *Store) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// apply persists the candidate snapshot and, only if that succeeds, makes it
// the current state and records the action batch. A persist failure leaves
// the store exactly as it was.
func (s *Store) apply(next model.Snapshot, actions ...Action) error {
	if err := s.persist.Save(next); err != nil {
		return fmt.Errorf("store: persist: %w", err)
	}
	s.snap = next
	if s.recorder != nil && len(actions) > 0 {
		s.recorder.Record(actions)
	}
	return nil
}

// applySilent is apply without action emission, used for remote-origin
// replacements so accepted remote state does not echo back to the remote.
func (s *Store) applySilent(next model.Snapshot) error {
	if err := s.persist.Save(next); err != nil {
		return fmt.Errorf("store: persist: %w", err)
	}
	s.snap = next
	return nil
}

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Tasks returns copies of all tasks.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.snap.Tasks))
	for i, t := range s.snap.Tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task returns a copy of one task by id.
func (s *Store) Task(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.snap.Tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
}

// Logs returns copies of all daily logs.
func (s *Store) Logs() []model.DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DailyLog(nil), s.snap.Logs...)
}

// Observations returns copies of all observations.
func (s *Store) Observations() []model.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Observation, len(s.snap.Observations))
	for i, o := range s.snap.Observations {
		out[i] = o
		out[i].Images = append([]string(nil), o.Images...)
	}
	return out
}

// OffDays returns a copy of the off-day set.
func (s *Store) OffDays() []model.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Date(nil), s.snap.OffDays...)
}

// Config returns a copy of the app config.
func (s *Store) Config() model.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.AppConfig.Clone()
}

func (s *Store) displayIDTaken(snap model.Snapshot, displayID, excludeTaskID string) bool {
	for _, t := range snap.Tasks {
		if t.ID != excludeTaskID && strings.EqualFold(t.DisplayID, displayID) {
			return true
		}
	}
	return false
}

func (s *Store) statusKnown(snap model.Snapshot, status string) bool {
	for _, def := range snap.AppConfig.Statuses {
		if def.Value == status {
			return true
		}
	}
	return false
}

func findTask(snap *model.Snapshot, id string) (*model.Task, error) {
	for i := range snap.Tasks {
		if snap.Tasks[i].ID == id {
			return &snap.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
}
