package store

import (
	"fmt"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/recurrence"
)

// CreateTask adds a task. Missing id, status and creation time are filled
// in; the display id must not collide case-insensitively with any existing
// task.
func (s *Store) CreateTask(t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Status == "" {
		t.Status = s.snap.AppConfig.InitialStatus
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if !s.statusKnown(s.snap, t.Status) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrUnknownStatus, t.Status)
	}
	if s.displayIDTaken(s.snap, t.DisplayID, t.ID) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrDuplicateDisplayID, t.DisplayID)
	}
	if t.Recurrence != nil && t.Status == s.snap.AppConfig.DoneStatus {
		return model.Task{}, fmt.Errorf("%w: %q", ErrRecurringDone, t.DisplayID)
	}

	next := s.snap.Clone()
	next.Tasks = append(next.Tasks, t.Clone())
	if err := s.apply(next, taskAction(OpCreate, t)); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// UpdateTask replaces a task wholesale. Renaming the display id is rejected
// when it collides with another task, and the stored task is unchanged on
// any error. A recurring task never holds the terminal done status;
// completion must go through SetTaskStatus, which rolls it over instead.
func (s *Store) UpdateTask(t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if !s.statusKnown(s.snap, t.Status) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrUnknownStatus, t.Status)
	}
	if s.displayIDTaken(s.snap, t.DisplayID, t.ID) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrDuplicateDisplayID, t.DisplayID)
	}
	if t.Recurrence != nil && t.Status == s.snap.AppConfig.DoneStatus {
		return model.Task{}, fmt.Errorf("%w: %q", ErrRecurringDone, t.DisplayID)
	}

	next := s.snap.Clone()
	existing, err := findTask(&next, t.ID)
	if err != nil {
		return model.Task{}, err
	}
	*existing = t.Clone()
	if err := s.apply(next, taskAction(OpUpdate, t)); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task and, with it, every update it owns.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	idx := -1
	for i := range next.Tasks {
		if next.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	next.Tasks = append(next.Tasks[:idx], next.Tasks[idx+1:]...)
	return s.apply(next, taskDelete(id))
}

// SetTaskStatus transitions a task's status. Setting a recurring task to the
// configured done status rolls it into its next occurrence instead of
// closing it; every transition appends one update and one mirroring daily
// log, so the whole mutation is one task:update plus one log:create.
func (s *Store) SetTaskStatus(id, status string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.statusKnown(s.snap, status) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	next := s.snap.Clone()
	task, err := findTask(&next, id)
	if err != nil {
		return model.Task{}, err
	}

	if status == next.AppConfig.DoneStatus && task.IsRecurring() {
		out, rollErr := recurrence.Roll(*task, next.AppConfig, s.now(), s.newID(), s.newID())
		if rollErr != nil {
			return model.Task{}, rollErr
		}
		*task = out.Task
		next.Logs = append(next.Logs, out.Log)
		result := task.Clone()
		if err := s.apply(next, taskAction(OpUpdate, result), logAction(OpCreate, out.Log)); err != nil {
			return model.Task{}, err
		}
		return result, nil
	}

	now := s.now()
	text := fmt.Sprintf("Status changed to %s", s.statusLabel(next.AppConfig, status))
	update := model.Update{ID: s.newID(), Timestamp: now, Text: text}
	task.Status = status
	task.Updates = append(task.Updates, update)
	log := model.DailyLog{ID: s.newID(), Date: model.DateOf(now), TaskID: task.ID, Text: text}
	next.Logs = append(next.Logs, log)

	result := task.Clone()
	if err := s.apply(next, taskAction(OpUpdate, result), logAction(OpCreate, log)); err != nil {
		return model.Task{}, err
	}
	return result, nil
}

func (s *Store) statusLabel(cfg model.AppConfig, status string) string {
	for _, def := range cfg.Statuses {
		if def.Value == status && def.Label != "" {
			return def.Label
		}
	}
	return status
}

// MoveTask sets the manual sort order used for same-day ordering.
func (s *Store) MoveTask(id string, sortOrder int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	task, err := findTask(&next, id)
	if err != nil {
		return err
	}
	task.SortOrder = &sortOrder
	return s.apply(next, taskAction(OpUpdate, task.Clone()))
}

// AddUpdate appends a note to a task.
func (s *Store) AddUpdate(taskID, text string, highlight *model.Highlight) (model.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return model.Update{}, &model.ValidationError{Entity: "update", Fields: []string{"text is required"}}
	}
	next := s.snap.Clone()
	task, err := findTask(&next, taskID)
	if err != nil {
		return model.Update{}, err
	}
	update := model.Update{ID: s.newID(), Timestamp: s.now(), Text: text}
	if highlight != nil {
		h := *highlight
		update.Highlight = &h
	}
	task.Updates = append(task.Updates, update)
	if err := s.apply(next, taskAction(OpUpdate, task.Clone())); err != nil {
		return model.Update{}, err
	}
	return update, nil
}

// EditUpdate rewrites an update's text. When a daily log still carries the
// update's original text verbatim, that log is rewritten in the same
// mutation; a log that has since diverged is left untouched. The pairing is
// content equality, not a foreign key.
func (s *Store) EditUpdate(taskID, updateID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return &model.ValidationError{Entity: "update", Fields: []string{"text is required"}}
	}
	next := s.snap.Clone()
	task, err := findTask(&next, taskID)
	if err != nil {
		return err
	}
	update, err := findUpdate(task, updateID)
	if err != nil {
		return err
	}
	oldText := update.Text
	update.Text = text

	actions := []Action{taskAction(OpUpdate, task.Clone())}
	if log := findLogByText(&next, oldText); log != nil {
		log.Text = text
		actions = append(actions, logAction(OpUpdate, *log))
	}
	return s.apply(next, actions...)
}

// DeleteUpdate removes an update and the daily log that still mirrors its
// text, when one exists.
func (s *Store) DeleteUpdate(taskID, updateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	task, err := findTask(&next, taskID)
	if err != nil {
		return err
	}
	idx := -1
	for i := range task.Updates {
		if task.Updates[i].ID == updateID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: update %s", ErrNotFound, updateID)
	}
	oldText := task.Updates[idx].Text
	task.Updates = append(task.Updates[:idx], task.Updates[idx+1:]...)

	actions := []Action{taskAction(OpUpdate, task.Clone())}
	if log := findLogByText(&next, oldText); log != nil {
		id := log.ID
		removeLog(&next, id)
		actions = append(actions, logDelete(id))
	}
	return s.apply(next, actions...)
}

func findUpdate(task *model.Task, updateID string) (*model.Update, error) {
	for i := range task.Updates {
		if task.Updates[i].ID == updateID {
			return &task.Updates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: update %s", ErrNotFound, updateID)
}

func findLogByText(snap *model.Snapshot, text string) *model.DailyLog {
	for i := range snap.Logs {
		if snap.Logs[i].Text == text {
			return &snap.Logs[i]
		}
	}
	return nil
}

func removeLog(snap *model.Snapshot, id string) {
	for i := range snap.Logs {
		if snap.Logs[i].ID == id {
			snap.Logs = append(snap.Logs[:i], snap.Logs[i+1:]...)
			return
		}
	}
}
