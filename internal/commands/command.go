// Package commands parses the quick-entry palette: one-line verbs typed into
// the TUI input bar, turned into typed arguments for the entity store.
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daygrid/daygrid/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeLog    Type = "log"
	TypeObs    Type = "obs"
	TypeDone   Type = "done"
	TypeStatus Type = "status"
	TypeMove   Type = "move"
	TypeOff    Type = "off"
	TypeDelete Type = "del"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Description string
	DueDate     *model.Date
	Priority    string
	Recurrence  *model.RecurrenceConfig
}

type LogArgs struct {
	Text string
}

type ObsArgs struct {
	Text string
}

type DoneArgs struct {
	Target string
}

type StatusArgs struct {
	Target string
	Status string
}

type MoveArgs struct {
	Target string
	Date   *model.Date
	Days   int
}

type OffArgs struct {
	Date *model.Date
}

type DeleteArgs struct {
	Target string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Log    *LogArgs
	Obs    *ObsArgs
	Done   *DoneArgs
	Status *StatusArgs
	Move   *MoveArgs
	Off    *OffArgs
	Delete *DeleteArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeLog:
		return parseLog(input, args)
	case TypeObs:
		return parseObs(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeStatus:
		return parseStatus(input, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeOff:
		return parseOff(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd accepts trailing option words of the form due:YYYY-MM-DD,
// prio:<value>, every:<rule>; everything else is the task description.
func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a description"}
	}
	add := &AddArgs{}
	var words []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "due:"):
			d, err := model.ParseDate(strings.TrimPrefix(arg, "due:"))
			if err != nil {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid due date: %s", strings.TrimPrefix(arg, "due:"))}
			}
			add.DueDate = &d
		case strings.HasPrefix(lower, "prio:"):
			add.Priority = strings.TrimPrefix(lower, "prio:")
		case strings.HasPrefix(lower, "every:"):
			rec, err := parseRecurrence(strings.TrimPrefix(lower, "every:"))
			if err != nil {
				return Command{}, err
			}
			add.Recurrence = rec
		default:
			words = append(words, arg)
		}
	}
	add.Description = strings.TrimSpace(strings.Join(words, " "))
	if add.Description == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a description"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: add}, nil
}

// parseRecurrence reads rules like "day", "2:week", "month".
func parseRecurrence(rule string) (*model.RecurrenceConfig, error) {
	interval := 1
	unit := rule
	if head, tail, ok := strings.Cut(rule, ":"); ok {
		n, err := strconv.Atoi(head)
		if err != nil || n < 1 {
			return nil, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid recurrence interval: %s", head)}
		}
		interval = n
		unit = tail
	}
	var typ model.RecurrenceType
	switch unit {
	case "day", "days", "daily":
		typ = model.RecurDaily
	case "week", "weeks", "weekly":
		typ = model.RecurWeekly
	case "month", "months", "monthly":
		typ = model.RecurMonthly
	case "year", "years", "yearly":
		typ = model.RecurYearly
	default:
		return nil, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid recurrence unit: %s", unit)}
	}
	return &model.RecurrenceConfig{Type: typ, Interval: interval}, nil
}

func parseLog(raw string, args []string) (Command, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "log requires text"}
	}
	return Command{Type: TypeLog, Raw: raw, Log: &LogArgs{Text: text}}, nil
}

func parseObs(raw string, args []string) (Command, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "obs requires text"}
	}
	return Command{Type: TypeObs, Raw: raw, Obs: &ObsArgs{Text: text}}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires a task id"}
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Target: args[0]}}, nil
}

func parseStatus(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "status requires a task id and a status"}
	}
	return Command{Type: TypeStatus, Raw: raw, Status: &StatusArgs{Target: args[0], Status: strings.ToLower(args[1])}}, nil
}

// parseMove accepts a date or a relative day count like +3 or -1.
func parseMove(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "move requires a task id and a date"}
	}
	move := &MoveArgs{Target: args[0]}
	when := args[1]
	if strings.HasPrefix(when, "+") || strings.HasPrefix(when, "-") {
		n, err := strconv.Atoi(when)
		if err != nil || n == 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid day offset: %s", when)}
		}
		move.Days = n
	} else {
		d, err := model.ParseDate(when)
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date: %s", when)}
		}
		move.Date = &d
	}
	return Command{Type: TypeMove, Raw: raw, Move: move}, nil
}

func parseOff(raw string, args []string) (Command, error) {
	off := &OffArgs{}
	if len(args) > 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "off takes at most one date"}
	}
	if len(args) == 1 {
		d, err := model.ParseDate(args[0])
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date: %s", args[0])}
		}
		off.Date = &d
	}
	return Command{Type: TypeOff, Raw: raw, Off: off}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "del requires a task id"}
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Target: args[0]}}, nil
}
