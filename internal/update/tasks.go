package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/views"
)

func (m Model) handleTasksKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		m.taskCursor = clampCursor(m.taskCursor+1, len(m.tasks))
		m.syncSelectedTask()
		m.syncBubbleData()
	case "k", "up":
		m.taskCursor = clampCursor(m.taskCursor-1, len(m.tasks))
		m.syncSelectedTask()
		m.syncBubbleData()
	case "enter":
		m.DetailVisible = !m.DetailVisible
	case "d":
		if t, ok := m.currentTask(); ok {
			updated, err := m.store.SetTaskStatus(t.ID, m.config.DoneStatus)
			if err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				break
			}
			if updated.IsRecurring() {
				m.Status = StatusBar{Text: fmt.Sprintf("%s rolled to %s", updated.DisplayID, updated.DueDate), IsError: false}
			} else {
				m.Status = StatusBar{Text: fmt.Sprintf("%s done", updated.DisplayID), IsError: false}
			}
			m.refreshFromStore()
		}
	case "x":
		if t, ok := m.currentTask(); ok {
			if err := m.store.DeleteTask(t.ID); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				break
			}
			m.Status = StatusBar{Text: fmt.Sprintf("%s deleted", t.DisplayID), IsError: false}
			m.refreshFromStore()
		}
	case "f":
		m.StatusFilter = m.nextStatusFilter()
		m.taskCursor = 0
		m.refreshFromStore()
	}
	return m
}

// nextStatusFilter cycles none -> each configured status -> none.
func (m Model) nextStatusFilter() string {
	statuses := m.config.Statuses
	if len(statuses) == 0 {
		return ""
	}
	if m.StatusFilter == "" {
		return statuses[0].Value
	}
	for i, s := range statuses {
		if s.Value == m.StatusFilter {
			if i+1 < len(statuses) {
				return statuses[i+1].Value
			}
			return ""
		}
	}
	return ""
}

func (m Model) renderTasksView() string {
	today := model.DateOf(m.now())
	items := make([]views.TaskRowData, 0, len(m.tasks))
	for _, t := range m.tasks {
		items = append(items, views.TaskRowData{
			ID:          t.ID,
			DisplayID:   t.DisplayID,
			Description: t.Description,
			DueDate:     t.DueDate.String(),
			Status:      t.Status,
			Priority:    t.Priority,
			Recurring:   t.IsRecurring(),
			Overdue:     t.DueDate.Before(today) && t.Status != m.config.DoneStatus,
		})
	}
	return views.RenderTasksPanel(views.TasksPanelData{
		ListView:   m.tasksList.View(),
		Items:      items,
		SelectedID: m.SelectedTaskID,
		Filter:     m.StatusFilter,
	})
}

func (m Model) renderTaskDetailPane() string {
	if !m.DetailVisible {
		return "detail:\n(press enter on a task)"
	}
	t, ok := m.currentTask()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{})
	}
	subtasks := make([]string, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		box := "[ ]"
		if st.Completed {
			box = "[x]"
		}
		subtasks = append(subtasks, box+" "+st.Text)
	}
	rec := ""
	if t.Recurrence != nil {
		rec = fmt.Sprintf("every %d %s", t.Recurrence.Interval, t.Recurrence.Type)
	}
	return views.RenderTaskDetail(views.TaskDetailData{
		DisplayID:   t.DisplayID,
		Description: t.Description,
		DueDate:     t.DueDate.String(),
		Status:      t.Status,
		Priority:    t.Priority,
		Recurrence:  rec,
		Subtasks:    subtasks,
		UpdatesView: m.detailViewport.View(),
	})
}

// renderUpdatesMarkdown turns a task's update trail into the markdown shown
// in the detail viewport.
func renderUpdatesMarkdown(t model.Task, theme string) string {
	if len(t.Updates) == 0 {
		return views.RenderMarkdown("_No updates_", theme)
	}
	var b strings.Builder
	for i := len(t.Updates) - 1; i >= 0; i-- {
		u := t.Updates[i]
		b.WriteString("- **" + u.Timestamp.Format("2006-01-02 15:04") + "**")
		if u.Highlight != nil {
			b.WriteString(" `" + u.Highlight.Label + "`")
		}
		b.WriteString(" " + u.Text + "\n")
	}
	return views.RenderMarkdown(b.String(), theme)
}
