package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/views"
)

func (m Model) handleLogsKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		m.logCursor = clampCursor(m.logCursor+1, len(m.logs))
	case "k", "up":
		m.logCursor = clampCursor(m.logCursor-1, len(m.logs))
	case "x":
		if l, ok := m.currentLog(); ok {
			if err := m.store.DeleteLog(l.ID); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				break
			}
			m.Status = StatusBar{Text: "log deleted", IsError: false}
			m.refreshFromStore()
		}
	case "o":
		day := model.DateOf(m.now())
		if l, ok := m.currentLog(); ok {
			day = l.Date
		}
		if err := m.store.ToggleOffDay(day); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			break
		}
		m.Status = StatusBar{Text: fmt.Sprintf("toggled off-day %s", day), IsError: false}
		m.refreshFromStore()
	}
	return m
}

func (m Model) renderLogsView() string {
	items := make([]views.LogRowData, 0, len(m.logs))
	for _, l := range m.logs {
		items = append(items, views.LogRowData{ID: l.ID, Date: l.Date.String(), Text: l.Text})
	}
	selected := ""
	if l, ok := m.currentLog(); ok {
		selected = l.ID
	}
	return views.RenderLogsPanel(views.LogsPanelData{
		Items:      items,
		SelectedID: selected,
		OffDays:    m.offDays,
	})
}

func (m Model) handleBoardKey(msg tea.KeyMsg) Model {
	cards := m.boardCards()
	switch msg.String() {
	case "j", "down":
		m.boardCursor = clampCursor(m.boardCursor+1, len(cards))
	case "k", "up":
		m.boardCursor = clampCursor(m.boardCursor-1, len(cards))
	case "h", "l":
		if o, ok := m.currentCard(); ok {
			next, changed := m.shiftStatus(o.Status, msg.String() == "l")
			if !changed {
				break
			}
			o.Status = next
			if err := m.store.UpdateObservation(o); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				break
			}
			m.Status = StatusBar{Text: fmt.Sprintf("observation moved to %s", next), IsError: false}
			m.refreshFromStore()
		}
	case "x":
		if o, ok := m.currentCard(); ok {
			if err := m.store.DeleteObservation(o.ID); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				break
			}
			m.Status = StatusBar{Text: "observation deleted", IsError: false}
			m.refreshFromStore()
		}
	}
	return m
}

// shiftStatus moves one column left or right in the configured order.
func (m Model) shiftStatus(status string, right bool) (string, bool) {
	cols := m.config.ObservationStatuses
	for i, col := range cols {
		if col.Value != status {
			continue
		}
		if right && i+1 < len(cols) {
			return cols[i+1].Value, true
		}
		if !right && i > 0 {
			return cols[i-1].Value, true
		}
		return status, false
	}
	return status, false
}

func (m Model) renderBoardView() string {
	columns := make([]views.BoardColumnData, 0, len(m.config.ObservationStatuses))
	for _, col := range m.config.ObservationStatuses {
		column := views.BoardColumnData{Status: col.Value, Label: col.Label}
		for _, o := range m.observations {
			if o.Status == col.Value {
				column.Cards = append(column.Cards, views.BoardCardData{ID: o.ID, Text: o.Text, Status: o.Status})
			}
		}
		columns = append(columns, column)
	}
	selected := ""
	if o, ok := m.currentCard(); ok {
		selected = o.ID
	}
	return views.RenderBoardPanel(views.BoardPanelData{Columns: columns, SelectedID: selected})
}
