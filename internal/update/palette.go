package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daygrid/daygrid/internal/commands"
	"github.com/daygrid/daygrid/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.Palette.Active = false
		m.Palette.Input = ""
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			t := model.Task{
				DisplayID:   m.nextDisplayID(),
				Description: a.Description,
				DueDate:     model.DateOf(m.now()),
				Priority:    a.Priority,
				Recurrence:  a.Recurrence,
			}
			if a.DueDate != nil {
				t.DueDate = *a.DueDate
			}
			created, err := m.store.CreateTask(t)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s: %s", created.DisplayID, created.Description)}, nil
		},
		Log: func(a commands.LogArgs) (commands.Result, error) {
			if _, err := m.store.CreateLog(model.DailyLog{Date: model.DateOf(m.now()), Text: a.Text}); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "log recorded"}, nil
		},
		Obs: func(a commands.ObsArgs) (commands.Result, error) {
			if _, err := m.store.CreateObservation(model.Observation{Text: a.Text}); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "observation captured"}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			t, ok := m.findTaskByHandle(a.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task %s", a.Target)}
			}
			updated, err := m.store.SetTaskStatus(t.ID, m.config.DoneStatus)
			if err != nil {
				return commands.Result{}, err
			}
			if updated.IsRecurring() {
				return commands.Result{Message: fmt.Sprintf("%s rolled to %s", updated.DisplayID, updated.DueDate)}, nil
			}
			return commands.Result{Message: fmt.Sprintf("%s done", updated.DisplayID)}, nil
		},
		Status: func(a commands.StatusArgs) (commands.Result, error) {
			t, ok := m.findTaskByHandle(a.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task %s", a.Target)}
			}
			if _, err := m.store.SetTaskStatus(t.ID, a.Status); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s -> %s", t.DisplayID, a.Status)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			t, ok := m.findTaskByHandle(a.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task %s", a.Target)}
			}
			if a.Date != nil {
				t.DueDate = *a.Date
			} else {
				t.DueDate = t.DueDate.AddDays(a.Days)
			}
			if _, err := m.store.UpdateTask(t); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s moved to %s", t.DisplayID, t.DueDate)}, nil
		},
		Off: func(a commands.OffArgs) (commands.Result, error) {
			day := model.DateOf(m.now())
			if a.Date != nil {
				day = *a.Date
			}
			if err := m.store.ToggleOffDay(day); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("toggled off-day %s", day)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			t, ok := m.findTaskByHandle(a.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task %s", a.Target)}
			}
			if err := m.store.DeleteTask(t.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s deleted", t.DisplayID)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
		m.refreshFromStore()
	}

	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	return m
}
