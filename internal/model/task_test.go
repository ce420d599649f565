package model

import (
	"errors"
	"testing"
	"time"
)

func validTask(t *testing.T) Task {
	t.Helper()
	return Task{
		ID:          "6f1d3a2e-0000-4000-8000-000000000001",
		DisplayID:   "DG-1",
		Description: "Write the weekly report",
		DueDate:     mustDate(t, "2024-01-01"),
		Status:      "not-started",
		Priority:    "medium",
		CreatedAt:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestTaskValidate(t *testing.T) {
	if err := validTask(t).Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	missingDesc := validTask(t)
	missingDesc.Description = ""
	err := missingDesc.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	noDue := validTask(t)
	noDue.DueDate = Date{}
	if noDue.Validate() == nil {
		t.Fatal("task without due date accepted")
	}

	badRecurrence := validTask(t)
	badRecurrence.Recurrence = &RecurrenceConfig{Type: "fortnightly", Interval: 1}
	if badRecurrence.Validate() == nil {
		t.Fatal("unknown recurrence type accepted")
	}

	zeroInterval := validTask(t)
	zeroInterval.Recurrence = &RecurrenceConfig{Type: RecurWeekly, Interval: 0}
	if zeroInterval.Validate() == nil {
		t.Fatal("zero recurrence interval accepted")
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	orig := validTask(t)
	orig.Updates = []Update{{
		ID:        "u1",
		Timestamp: orig.CreatedAt,
		Text:      "first note",
		Highlight: &Highlight{Label: "info", Color: "#00f"},
	}}
	orig.Subtasks = []Subtask{{ID: "s1", Text: "draft", Completed: true}}
	order := 3
	orig.SortOrder = &order

	cp := orig.Clone()
	cp.Updates[0].Text = "mutated"
	cp.Updates[0].Highlight.Label = "warn"
	cp.Subtasks[0].Completed = false
	*cp.SortOrder = 9

	if orig.Updates[0].Text != "first note" || orig.Updates[0].Highlight.Label != "info" {
		t.Fatal("clone shares update memory with original")
	}
	if !orig.Subtasks[0].Completed {
		t.Fatal("clone shares subtask memory with original")
	}
	if *orig.SortOrder != 3 {
		t.Fatal("clone shares sort order pointer with original")
	}
}

func TestSnapshotValidateRejectsWholesale(t *testing.T) {
	snap := EmptySnapshot()
	snap.Tasks = append(snap.Tasks, validTask(t))
	bad := validTask(t)
	bad.ID = ""
	snap.Tasks = append(snap.Tasks, bad)

	if err := snap.Validate(); err == nil {
		t.Fatal("snapshot with malformed task accepted")
	}
}
