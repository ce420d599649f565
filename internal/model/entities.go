package model

import "time"

// DailyLog is one line of the daily journal. TaskID, when set, is
// informational only: automatically created logs are paired with the task
// update they mirror by exact text equality, not by foreign key.
type DailyLog struct {
	ID     string `json:"id" validate:"required"`
	Date   Date   `json:"date"`
	TaskID string `json:"taskId,omitempty"`
	Text   string `json:"text" validate:"required"`
}

// Observation is a free-standing kanban note with its own lifecycle.
type Observation struct {
	ID        string    `json:"id" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Text      string    `json:"text" validate:"required"`
	Status    string    `json:"status" validate:"required"`
	Images    []string  `json:"images,omitempty"`
}

// OptionDef is one value of a configurable open set (statuses, priorities,
// observation statuses) with its display label and color.
type OptionDef struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// AppConfig holds the configurable vocabulary of the tracker. It syncs as a
// single "config" entity.
type AppConfig struct {
	Statuses            []OptionDef       `json:"statuses"`
	Priorities          []OptionDef       `json:"priorities"`
	ObservationStatuses []OptionDef       `json:"observationStatuses"`
	InitialStatus       string            `json:"initialStatus"`
	DoneStatus          string            `json:"doneStatus"`
	ColorOverrides      map[string]string `json:"colorOverrides,omitempty"`
	HighlightPalette    []Highlight       `json:"highlightPalette,omitempty"`
}

// IsZero reports whether the config has never been populated.
func (c AppConfig) IsZero() bool {
	return len(c.Statuses) == 0 && len(c.Priorities) == 0 &&
		len(c.ObservationStatuses) == 0 && c.InitialStatus == "" && c.DoneStatus == ""
}

// SuccessHighlight returns the palette entry used to tag rollover updates,
// falling back to a plain "success" tag when the palette has none.
func (c AppConfig) SuccessHighlight() Highlight {
	for _, h := range c.HighlightPalette {
		if h.Label == "success" {
			return h
		}
	}
	return Highlight{Label: "success", Color: "#22c55e"}
}

// DefaultConfig is the vocabulary a fresh install starts with.
func DefaultConfig() AppConfig {
	return AppConfig{
		Statuses: []OptionDef{
			{Value: "not-started", Label: "Not Started", Color: "#94a3b8"},
			{Value: "in-progress", Label: "In Progress", Color: "#3b82f6"},
			{Value: "blocked", Label: "Blocked", Color: "#ef4444"},
			{Value: "done", Label: "Done", Color: "#22c55e"},
		},
		Priorities: []OptionDef{
			{Value: "low", Label: "Low", Color: "#94a3b8"},
			{Value: "medium", Label: "Medium", Color: "#eab308"},
			{Value: "high", Label: "High", Color: "#ef4444"},
		},
		ObservationStatuses: []OptionDef{
			{Value: "open", Label: "Open", Color: "#3b82f6"},
			{Value: "tracking", Label: "Tracking", Color: "#eab308"},
			{Value: "closed", Label: "Closed", Color: "#22c55e"},
		},
		InitialStatus: "not-started",
		DoneStatus:    "done",
		HighlightPalette: []Highlight{
			{Label: "success", Color: "#22c55e"},
			{Label: "warning", Color: "#eab308"},
			{Label: "info", Color: "#3b82f6"},
		},
	}
}
