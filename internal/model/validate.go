package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError reports why an entity was rejected before any state
// change. The store returns these synchronously with no partial effect.
type ValidationError struct {
	Entity string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model: invalid %s: %s", e.Entity, strings.Join(e.Fields, "; "))
}

func checkStruct(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("model: validate %s: %w", entity, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Entity: entity, Fields: fields}
}

// Validate checks structural invariants of the task, including that its due
// date and recurrence config are well formed.
func (t Task) Validate() error {
	if err := checkStruct("task", t); err != nil {
		return err
	}
	if t.DueDate.IsZero() {
		return &ValidationError{Entity: "task", Fields: []string{"dueDate is required"}}
	}
	return nil
}

func (l DailyLog) Validate() error {
	if err := checkStruct("log", l); err != nil {
		return err
	}
	if l.Date.IsZero() {
		return &ValidationError{Entity: "log", Fields: []string{"date is required"}}
	}
	return nil
}

func (o Observation) Validate() error {
	return checkStruct("observation", o)
}

// Validate rejects a malformed snapshot wholesale; import and migration use
// it so existing state is never partially replaced.
func (s Snapshot) Validate() error {
	for _, t := range s.Tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	for _, l := range s.Logs {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("log %s: %w", l.ID, err)
		}
	}
	for _, o := range s.Observations {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("observation %s: %w", o.ID, err)
		}
	}
	return nil
}
