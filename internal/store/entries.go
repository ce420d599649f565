package store

import (
	"fmt"

	"github.com/daygrid/daygrid/internal/model"
)

// CreateLog adds a daily log entry written directly by the user.
func (s *Store) CreateLog(l model.DailyLog) (model.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = s.newID()
	}
	if l.Date.IsZero() {
		l.Date = model.DateOf(s.now())
	}
	if err := l.Validate(); err != nil {
		return model.DailyLog{}, err
	}
	next := s.snap.Clone()
	next.Logs = append(next.Logs, l)
	if err := s.apply(next, logAction(OpCreate, l)); err != nil {
		return model.DailyLog{}, err
	}
	return l, nil
}

// UpdateLog rewrites an existing log entry.
func (s *Store) UpdateLog(l model.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := l.Validate(); err != nil {
		return err
	}
	next := s.snap.Clone()
	for i := range next.Logs {
		if next.Logs[i].ID == l.ID {
			next.Logs[i] = l
			return s.apply(next, logAction(OpUpdate, l))
		}
	}
	return fmt.Errorf("%w: log %s", ErrNotFound, l.ID)
}

// DeleteLog removes a log entry.
func (s *Store) DeleteLog(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	for i := range next.Logs {
		if next.Logs[i].ID == id {
			next.Logs = append(next.Logs[:i], next.Logs[i+1:]...)
			return s.apply(next, logDelete(id))
		}
	}
	return fmt.Errorf("%w: log %s", ErrNotFound, id)
}

// CreateObservation adds a kanban observation.
func (s *Store) CreateObservation(o model.Observation) (model.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = s.newID()
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = s.now()
	}
	if o.Status == "" && len(s.snap.AppConfig.ObservationStatuses) > 0 {
		o.Status = s.snap.AppConfig.ObservationStatuses[0].Value
	}
	if err := o.Validate(); err != nil {
		return model.Observation{}, err
	}
	next := s.snap.Clone()
	next.Observations = append(next.Observations, o)
	if err := s.apply(next, observationAction(OpCreate, o)); err != nil {
		return model.Observation{}, err
	}
	return o, nil
}

// UpdateObservation replaces an observation wholesale.
func (s *Store) UpdateObservation(o model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := o.Validate(); err != nil {
		return err
	}
	next := s.snap.Clone()
	for i := range next.Observations {
		if next.Observations[i].ID == o.ID {
			next.Observations[i] = o
			return s.apply(next, observationAction(OpUpdate, o))
		}
	}
	return fmt.Errorf("%w: observation %s", ErrNotFound, o.ID)
}

// DeleteObservation removes an observation.
func (s *Store) DeleteObservation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	for i := range next.Observations {
		if next.Observations[i].ID == id {
			next.Observations = append(next.Observations[:i], next.Observations[i+1:]...)
			return s.apply(next, observationDelete(id))
		}
	}
	return fmt.Errorf("%w: observation %s", ErrNotFound, id)
}

// ToggleOffDay adds the date to the off-day set, or removes it when already
// present. The emitted action always carries the full resulting set.
func (s *Store) ToggleOffDay(d model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.IsZero() {
		return &model.ValidationError{Entity: "offDay", Fields: []string{"date is required"}}
	}
	next := s.snap.Clone()
	removed := false
	for i := range next.OffDays {
		if next.OffDays[i] == d {
			next.OffDays = append(next.OffDays[:i], next.OffDays[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		next.OffDays = append(next.OffDays, d)
	}
	return s.apply(next, offDaysAction(next.OffDays))
}

// SetConfig replaces the app config. The initial and done status values must
// belong to the configured status set.
func (s *Store) SetConfig(cfg model.AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.IsZero() {
		return &model.ValidationError{Entity: "config", Fields: []string{"config is empty"}}
	}
	if !statusIn(cfg.Statuses, cfg.InitialStatus) {
		return &model.ValidationError{Entity: "config", Fields: []string{"initialStatus not in statuses"}}
	}
	if !statusIn(cfg.Statuses, cfg.DoneStatus) {
		return &model.ValidationError{Entity: "config", Fields: []string{"doneStatus not in statuses"}}
	}
	next := s.snap.Clone()
	next.AppConfig = cfg.Clone()
	return s.apply(next, configAction(next.AppConfig))
}

func statusIn(defs []model.OptionDef, value string) bool {
	for _, def := range defs {
		if def.Value == value {
			return true
		}
	}
	return false
}
