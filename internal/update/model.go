// Package update holds the bubbletea program: view state, key handling and
// the bridge to the entity store.
package update

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/store"
)

type View string

const (
	ViewTasks View = "Tasks"
	ViewLogs  View = "Logs"
	ViewBoard View = "Board"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks string
	Logs  string
	Board string
	Help  string
	Quit  string
}

// SyncController is the slice of the reconciler the TUI toggles.
type SyncController interface {
	Enable(ctx context.Context) error
	Disable()
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	store *store.Store
	sync  SyncController

	CurrentView    View
	SelectedTaskID string
	StatusFilter   string
	DetailVisible  bool
	Palette        CommandPaletteState
	HelpVisible    bool
	SyncEnabled    bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Theme          string
	Quitting       bool
	LastError      error

	tasks        []model.Task
	logs         []model.DailyLog
	observations []model.Observation
	offDays      map[string]bool
	config       model.AppConfig

	taskCursor  int
	logCursor   int
	boardCursor int

	// Bubble components used for rich TUI controls
	tasksList      list.Model
	commandInput   textinput.Model
	syncSpinner    spinner.Model
	helpModel      help.Model
	detailViewport viewport.Model

	now func() time.Time
}

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// RefreshTickMsg drives the periodic re-read of the store so changes applied
// by the reconciler show up without a keypress.
type RefreshTickMsg struct{}

func NewModel(st *store.Store, sync SyncController) Model {
	m := Model{
		store:       st,
		sync:        sync,
		CurrentView: ViewTasks,
		offDays:     make(map[string]bool),
		Keys: GlobalKeyMap{
			Tasks: "1",
			Logs:  "2",
			Board: "3",
			Help:  "?",
			Quit:  "q",
		},
		Theme: "dark",
		now:   time.Now,
	}
	m.initBubbleComponents()
	m.refreshFromStore()
	return m
}

func (m *Model) initBubbleComponents() {
	m.tasksList = list.New([]list.Item{}, list.NewDefaultDelegate(), 56, 12)
	m.tasksList.Title = "Tasks (list)"
	m.tasksList.SetShowHelp(false)
	m.tasksList.SetFilteringEnabled(false)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(54, 12)
}

// refreshFromStore re-reads every collection into view state, keeping
// cursors in range and selection stable where the task still exists.
func (m *Model) refreshFromStore() {
	m.tasks = m.store.Tasks()
	sort.SliceStable(m.tasks, func(i, j int) bool {
		a, b := m.tasks[i], m.tasks[j]
		if a.SortOrder != nil && b.SortOrder != nil && *a.SortOrder != *b.SortOrder {
			return *a.SortOrder < *b.SortOrder
		}
		if a.DueDate != b.DueDate {
			return a.DueDate.Before(b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if m.StatusFilter != "" {
		filtered := m.tasks[:0]
		for _, t := range m.tasks {
			if t.Status == m.StatusFilter {
				filtered = append(filtered, t)
			}
		}
		m.tasks = filtered
	}

	m.logs = m.store.Logs()
	sort.SliceStable(m.logs, func(i, j int) bool {
		if m.logs[i].Date != m.logs[j].Date {
			return m.logs[j].Date.Before(m.logs[i].Date)
		}
		return m.logs[i].ID < m.logs[j].ID
	})

	m.observations = m.store.Observations()
	sort.SliceStable(m.observations, func(i, j int) bool {
		return m.observations[i].Timestamp.Before(m.observations[j].Timestamp)
	})

	m.offDays = make(map[string]bool)
	for _, d := range m.store.OffDays() {
		m.offDays[d.String()] = true
	}
	m.config = m.store.Config()

	m.taskCursor = clampCursor(m.taskCursor, len(m.tasks))
	m.logCursor = clampCursor(m.logCursor, len(m.logs))
	m.boardCursor = clampCursor(m.boardCursor, len(m.observations))
	m.syncSelectedTask()
	m.syncBubbleData()
}

func (m *Model) syncSelectedTask() {
	if m.taskCursor < len(m.tasks) {
		m.SelectedTaskID = m.tasks[m.taskCursor].ID
	} else {
		m.SelectedTaskID = ""
	}
}

func (m *Model) syncBubbleData() {
	items := make([]list.Item, 0, len(m.tasks))
	for _, t := range m.tasks {
		desc := t.DueDate.String() + " | " + t.Status
		items = append(items, listItem{title: t.DisplayID + " " + t.Description, description: desc})
	}
	m.tasksList.SetItems(items)
	if len(items) > 0 {
		m.tasksList.Select(m.taskCursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	if t, ok := m.currentTask(); ok {
		m.detailViewport.SetContent(renderUpdatesMarkdown(t, m.Theme))
	} else {
		m.detailViewport.SetContent("")
	}
}

func (m Model) currentTask() (model.Task, bool) {
	if m.taskCursor < len(m.tasks) {
		return m.tasks[m.taskCursor], true
	}
	return model.Task{}, false
}

func (m Model) currentLog() (model.DailyLog, bool) {
	if m.logCursor < len(m.logs) {
		return m.logs[m.logCursor], true
	}
	return model.DailyLog{}, false
}

// boardCards returns observations in column order: grouped by the configured
// observation statuses, each column ordered by timestamp.
func (m Model) boardCards() []model.Observation {
	cards := make([]model.Observation, 0, len(m.observations))
	for _, col := range m.config.ObservationStatuses {
		for _, o := range m.observations {
			if o.Status == col.Value {
				cards = append(cards, o)
			}
		}
	}
	return cards
}

func (m Model) currentCard() (model.Observation, bool) {
	cards := m.boardCards()
	if m.boardCursor < len(cards) {
		return cards[m.boardCursor], true
	}
	return model.Observation{}, false
}

// findTaskByHandle resolves a palette target: display id first
// (case-insensitive), raw id as fallback.
func (m Model) findTaskByHandle(handle string) (model.Task, bool) {
	for _, t := range m.store.Tasks() {
		if strings.EqualFold(t.DisplayID, handle) {
			return t, true
		}
	}
	for _, t := range m.store.Tasks() {
		if t.ID == handle {
			return t, true
		}
	}
	return model.Task{}, false
}

// nextDisplayID picks the lowest free "T-<n>" handle.
func (m Model) nextDisplayID() string {
	taken := make(map[string]bool)
	for _, t := range m.store.Tasks() {
		taken[strings.ToLower(t.DisplayID)] = true
	}
	for n := 1; ; n++ {
		candidate := "T-" + strconv.Itoa(n)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func clampCursor(cursor, length int) int {
	if cursor >= length {
		cursor = length - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}
