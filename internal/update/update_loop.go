package update

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/daygrid/daygrid/internal/views"
)

const refreshInterval = 2 * time.Second

func refreshTickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return RefreshTickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return refreshTickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			next := m.handlePaletteKey(typed)
			return next, nil
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Tasks:
			m.CurrentView = ViewTasks
			return m, nil
		case m.Keys.Logs:
			m.CurrentView = ViewLogs
			return m, nil
		case m.Keys.Board:
			m.CurrentView = ViewBoard
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "S":
			return m.toggleSync()
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewTasks:
			return m.handleTasksKey(typed), nil
		case ViewLogs:
			return m.handleLogsKey(typed), nil
		case ViewBoard:
			return m.handleBoardKey(typed), nil
		}
	case spinner.TickMsg:
		if m.SyncEnabled {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case RefreshTickMsg:
		m.refreshFromStore()
		return m, refreshTickCmd()
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) toggleSync() (tea.Model, tea.Cmd) {
	if m.sync == nil {
		m.Status = StatusBar{Text: "no remote configured", IsError: true}
		return m, nil
	}
	if m.SyncEnabled {
		m.sync.Disable()
		m.SyncEnabled = false
		m.Status = StatusBar{Text: "sync disabled", IsError: false}
		return m, nil
	}
	if err := m.sync.Enable(context.Background()); err != nil {
		m.Status = StatusBar{Text: "sync failed: " + err.Error(), IsError: true}
		return m, nil
	}
	m.SyncEnabled = true
	m.Status = StatusBar{Text: "sync enabled", IsError: false}
	return m, m.syncSpinner.Tick
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewTasks:
		leftPane = m.renderTasksView()
		rightPane = m.renderTaskDetailPane() + m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewLogs:
		leftPane = m.renderLogsView()
		rightPane = m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewBoard:
		leftPane = m.renderBoardView()
		rightPane = m.renderCommandPalette() + m.renderHelpIfVisible()
	}

	syncLine := ""
	if m.SyncEnabled {
		syncLine = "sync: " + m.syncSpinner.View() + " live"
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("daygrid | view: %s | selected: %s", m.CurrentView, m.SelectedTaskID),
		LeftPane:   leftPane,
		RightPane:  rightPane,
		StatusLine: status,
		SyncLine:   syncLine,
		Footer:     fmt.Sprintf("keys: %s tasks | %s logs | %s board | / cmd | S sync | %s help | %s quit", m.Keys.Tasks, m.Keys.Logs, m.Keys.Board, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func isKnownView(v View) bool {
	switch v {
	case ViewTasks, ViewLogs, ViewBoard:
		return true
	default:
		return false
	}
}
