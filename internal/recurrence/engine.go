// Package recurrence decides what completing a task means: a recurring task
// rolls forward to its next occurrence, everything else just closes. All
// functions are pure; the store supplies ids and the clock.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/daygrid/daygrid/internal/model"
)

var (
	ErrNotRecurring = errors.New("recurrence: task has no recurrence config")
	ErrInvalidRule  = errors.New("recurrence: invalid recurrence config")
)

// Advance computes the next due date from the already-established due date,
// never from "today". Daily and weekly use day arithmetic; monthly and
// yearly use calendar arithmetic clamped to the end of short months.
func Advance(due model.Date, cfg model.RecurrenceConfig) (model.Date, error) {
	if cfg.Interval < 1 {
		return model.Date{}, fmt.Errorf("%w: interval %d", ErrInvalidRule, cfg.Interval)
	}
	switch cfg.Type {
	case model.RecurDaily:
		return due.AddDays(cfg.Interval), nil
	case model.RecurWeekly:
		return due.AddDays(cfg.Interval * 7), nil
	case model.RecurMonthly:
		return due.AddMonths(cfg.Interval), nil
	case model.RecurYearly:
		return due.AddYears(cfg.Interval), nil
	default:
		return model.Date{}, fmt.Errorf("%w: type %q", ErrInvalidRule, cfg.Type)
	}
}

// Outcome is the full effect of a rollover: the rescheduled task plus the
// update and log describing it. The log mirrors the update text exactly;
// that equality is what pairs them later.
type Outcome struct {
	Task   model.Task
	Update model.Update
	Log    model.DailyLog
}

// Roll advances a recurring task into its next occurrence. The task keeps
// its id, its status resets to the configured initial value, the due date
// advances, and every subtask's completion is cleared. The task is never
// marked done and never duplicated.
func Roll(task model.Task, cfg model.AppConfig, now time.Time, updateID, logID string) (Outcome, error) {
	if task.Recurrence == nil {
		return Outcome{}, ErrNotRecurring
	}
	next, err := Advance(task.DueDate, *task.Recurrence)
	if err != nil {
		return Outcome{}, err
	}

	out := task.Clone()
	out.Status = cfg.InitialStatus
	out.DueDate = next
	for i := range out.Subtasks {
		out.Subtasks[i].Completed = false
		out.Subtasks[i].CompletedAt = nil
	}

	highlight := cfg.SuccessHighlight()
	text := fmt.Sprintf("Completed recurring task %s. Next due %s.", task.DisplayID, next)
	update := model.Update{
		ID:        updateID,
		Timestamp: now,
		Text:      text,
		Highlight: &highlight,
	}
	out.Updates = append(out.Updates, update)

	log := model.DailyLog{
		ID:     logID,
		Date:   model.DateOf(now),
		TaskID: task.ID,
		Text:   text,
	}
	return Outcome{Task: out, Update: update, Log: log}, nil
}
