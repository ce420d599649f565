package model

import (
	"time"
)

// RecurrenceType is the cadence of a recurring task.
type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
	RecurYearly  RecurrenceType = "yearly"
)

func (r RecurrenceType) IsValid() bool {
	switch r {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurYearly:
		return true
	default:
		return false
	}
}

// RecurrenceConfig marks a task as recurring. A task carrying one is never
// marked done; completing it rolls it into its next occurrence instead.
type RecurrenceConfig struct {
	Type     RecurrenceType `json:"type" validate:"required,oneof=daily weekly monthly yearly"`
	Interval int            `json:"interval" validate:"required,min=1"`
}

// Highlight is a color/label pair drawn from the configurable palette.
type Highlight struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Attachment is a named reference to external content. The core never opens
// it; it only carries it.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Update is a timestamped note on a task. Owned exclusively by its task.
type Update struct {
	ID          string       `json:"id" validate:"required"`
	Timestamp   time.Time    `json:"timestamp" validate:"required"`
	Text        string       `json:"text" validate:"required"`
	Highlight   *Highlight   `json:"highlight,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Subtask is a checklist item inside a task. Rollover clears Completed and
// CompletedAt on every subtask.
type Subtask struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Task is a unit of tracked work. DisplayID is the user-facing handle and
// must be unique across all tasks case-insensitively.
type Task struct {
	ID          string            `json:"id" validate:"required"`
	DisplayID   string            `json:"displayId" validate:"required"`
	ProjectID   string            `json:"projectId,omitempty"`
	Description string            `json:"description" validate:"required"`
	DueDate     Date              `json:"dueDate"`
	Status      string            `json:"status" validate:"required"`
	Priority    string            `json:"priority"`
	Updates     []Update          `json:"updates,omitempty" validate:"dive"`
	Subtasks    []Subtask         `json:"subtasks,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	SortOrder   *int              `json:"sortOrder,omitempty"`
	Recurrence  *RecurrenceConfig `json:"recurrence,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" validate:"required"`
}

// IsRecurring reports whether completing the task should reschedule it
// instead of closing it.
func (t Task) IsRecurring() bool {
	return t.Recurrence != nil
}

// Clone returns a deep copy. Store reads hand out clones so no caller ever
// aliases store-owned slices.
func (t Task) Clone() Task {
	out := t
	out.Updates = cloneUpdates(t.Updates)
	out.Subtasks = cloneSubtasks(t.Subtasks)
	out.Attachments = append([]Attachment(nil), t.Attachments...)
	if t.SortOrder != nil {
		v := *t.SortOrder
		out.SortOrder = &v
	}
	if t.Recurrence != nil {
		r := *t.Recurrence
		out.Recurrence = &r
	}
	return out
}

func cloneUpdates(in []Update) []Update {
	if in == nil {
		return nil
	}
	out := make([]Update, len(in))
	for i, u := range in {
		out[i] = u
		out[i].Attachments = append([]Attachment(nil), u.Attachments...)
		if u.Highlight != nil {
			h := *u.Highlight
			out[i].Highlight = &h
		}
	}
	return out
}

func cloneSubtasks(in []Subtask) []Subtask {
	if in == nil {
		return nil
	}
	out := make([]Subtask, len(in))
	for i, s := range in {
		out[i] = s
		if s.CompletedAt != nil {
			ts := *s.CompletedAt
			out[i].CompletedAt = &ts
		}
	}
	return out
}
