package commands

import (
	"errors"
	"testing"

	"github.com/daygrid/daygrid/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent due:2024-03-01", TypeAdd},
		{"log reviewed the release checklist", TypeLog},
		{"obs builds are slower since tuesday", TypeObs},
		{"done T-12", TypeDone},
		{"status T-12 blocked", TypeStatus},
		{"move T-12 +3", TypeMove},
		{"off 2024-03-08", TypeOff},
		{"del T-12", TypeDelete},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddOptions(t *testing.T) {
	cmd, err := Parse("add water the plants due:2024-03-01 prio:high every:2:week")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	add := cmd.Add
	if add.Description != "water the plants" {
		t.Fatalf("description = %q", add.Description)
	}
	if add.DueDate == nil || add.DueDate.String() != "2024-03-01" {
		t.Fatalf("due date = %v", add.DueDate)
	}
	if add.Priority != "high" {
		t.Fatalf("priority = %q", add.Priority)
	}
	if add.Recurrence == nil || add.Recurrence.Type != model.RecurWeekly || add.Recurrence.Interval != 2 {
		t.Fatalf("recurrence = %+v", add.Recurrence)
	}
}

func TestParseAddRejectsBadOptions(t *testing.T) {
	for _, in := range []string{
		"add fix roof due:march",
		"add fix roof every:fortnight",
		"add fix roof every:0:week",
		"add due:2024-03-01",
	} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("parse %q should have failed", in)
		}
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseMoveRelativeAndAbsolute(t *testing.T) {
	cmd, err := Parse("move T-3 -2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.Days != -2 || cmd.Move.Date != nil {
		t.Fatalf("move args = %+v", cmd.Move)
	}

	cmd, err = Parse("move T-3 2024-06-15")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Move.Date == nil || cmd.Move.Date.String() != "2024-06-15" {
		t.Fatalf("move args = %+v", cmd.Move)
	}
}

func TestParseOffDefaultsToToday(t *testing.T) {
	cmd, err := Parse("off")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Off.Date != nil {
		t.Fatalf("off without a date should leave Date nil, got %v", cmd.Off.Date)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Description != "write docs" {
				t.Fatalf("unexpected description: %q", a.Description)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("done T-1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
