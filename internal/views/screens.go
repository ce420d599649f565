package views

import (
	"fmt"
	"sort"
	"strings"
)

type TaskRowData struct {
	ID          string
	DisplayID   string
	Description string
	DueDate     string
	Status      string
	Priority    string
	Recurring   bool
	Overdue     bool
}

type TasksPanelData struct {
	ListView   string
	Items      []TaskRowData
	SelectedID string
	Filter     string
}

type LogRowData struct {
	ID   string
	Date string
	Text string
}

type LogsPanelData struct {
	Items      []LogRowData
	SelectedID string
	OffDays    map[string]bool
}

type BoardCardData struct {
	ID     string
	Text   string
	Status string
}

type BoardColumnData struct {
	Status string
	Label  string
	Cards  []BoardCardData
}

type BoardPanelData struct {
	Columns    []BoardColumnData
	SelectedID string
}

type TaskDetailData struct {
	DisplayID   string
	Description string
	DueDate     string
	Status      string
	Priority    string
	Recurrence  string
	Subtasks    []string
	UpdatesView string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString("tasks:\n")
	b.WriteString("actions: [j/k]move [enter]detail [d]done [x]delete [1]tasks [2]logs [3]board\n")
	if data.Filter != "" {
		b.WriteString(fmt.Sprintf("filter: status=%s\n", data.Filter))
	}
	b.WriteString(data.ListView + "\n")
	if len(data.Items) == 0 {
		b.WriteString("(no tasks)")
		return strings.TrimSpace(b.String())
	}
	for _, item := range data.Items {
		cursor := " "
		if data.SelectedID == item.ID {
			cursor = ">"
		}
		badge := " "
		if item.Overdue {
			badge = "[OVERDUE]"
		} else if item.Recurring {
			badge = "[R]"
		}
		b.WriteString(fmt.Sprintf("%s %-6s %s %s", cursor, item.DisplayID, badge, item.Description))
		if item.DueDate != "" {
			b.WriteString(" due:" + item.DueDate)
		}
		b.WriteString(fmt.Sprintf(" [%s/%s]\n", item.Status, item.Priority))
	}
	return strings.TrimSpace(b.String())
}

// RenderLogsPanel groups logs by date, newest day first, and marks off-days.
func RenderLogsPanel(data LogsPanelData) string {
	var b strings.Builder
	b.WriteString("logs:\n")
	b.WriteString("actions: [j/k]move [x]delete [o]toggle off-day\n")
	if len(data.Items) == 0 {
		b.WriteString("(no logs)")
		return strings.TrimSpace(b.String())
	}

	grouped := make(map[string][]LogRowData)
	days := make([]string, 0)
	for _, item := range data.Items {
		if _, ok := grouped[item.Date]; !ok {
			days = append(days, item.Date)
		}
		grouped[item.Date] = append(grouped[item.Date], item)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	for _, day := range days {
		marker := ""
		if data.OffDays[day] {
			marker = " (off)"
		}
		b.WriteString(fmt.Sprintf("\n%s%s:\n", day, marker))
		for _, item := range grouped[day] {
			cursor := " "
			if data.SelectedID == item.ID {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s - %s\n", cursor, item.Text))
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderBoardPanel(data BoardPanelData) string {
	var b strings.Builder
	b.WriteString("board:\n")
	b.WriteString("actions: [j/k]card [h/l]move across columns [x]delete\n")
	if len(data.Columns) == 0 {
		b.WriteString("(no observation statuses configured)")
		return strings.TrimSpace(b.String())
	}
	for _, col := range data.Columns {
		b.WriteString(fmt.Sprintf("\n%s (%d):\n", col.Label, len(col.Cards)))
		if len(col.Cards) == 0 {
			b.WriteString("  (empty)\n")
			continue
		}
		for _, card := range col.Cards {
			cursor := " "
			if data.SelectedID == card.ID {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s - %s\n", cursor, card.Text))
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderTaskDetail(data TaskDetailData) string {
	if strings.TrimSpace(data.DisplayID) == "" {
		return "detail:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("detail:\n")
	b.WriteString(fmt.Sprintf("id: %s\n", data.DisplayID))
	b.WriteString(fmt.Sprintf("task: %s\n", data.Description))
	b.WriteString(fmt.Sprintf("due: %s | status: %s | priority: %s\n", data.DueDate, data.Status, data.Priority))
	if data.Recurrence != "" {
		b.WriteString(fmt.Sprintf("repeats: %s\n", data.Recurrence))
	}
	if len(data.Subtasks) > 0 {
		b.WriteString("subtasks:\n")
		for _, st := range data.Subtasks {
			b.WriteString("  " + st + "\n")
		}
	}
	if data.UpdatesView != "" {
		b.WriteString("\nupdates:\n" + data.UpdatesView)
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nglobal:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
