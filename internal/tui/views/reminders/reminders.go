// Package reminders shows delivered store-entry reminders, newest first.
package reminders

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/tui/components"
)

// History pages through stored reminders.
type History interface {
	ListRecent(ctx context.Context, page models.Pagination) ([]models.ReminderEvent, error)
	Count(ctx context.Context) (int, error)
}

// RemindersView lists reminder history.
type RemindersView struct {
	history    History
	table      *components.Table
	events     []models.ReminderEvent
	page       models.Pagination
	total      int
	err        error
	timeFormat string
}

// NewRemindersView creates a new reminder history view.
func NewRemindersView(history History) *RemindersView {
	columns := []components.Column{
		{Title: "When", Width: 16, Priority: 3},
		{Title: "Store", Width: 20, Priority: 2},
		{Title: "Low on", Width: 30, Weight: 1, Priority: 1},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &RemindersView{
		history:    history,
		table:      table,
		page:       models.Pagination{Page: 1, PageSize: 20},
		timeFormat: "Jan 02 15:04",
	}
}

// SetStyles applies theme colors.
func (v *RemindersView) SetStyles(s components.Styles) {
	v.table.SetStyles(s)
}

// SetTimeFormat sets the clock layout; the date is always shown.
func (v *RemindersView) SetTimeFormat(layout string) {
	if layout != "" {
		v.timeFormat = "Jan 02 " + layout
	}
}

// Load fetches the current page of history.
func (v *RemindersView) Load(ctx context.Context) error {
	v.err = nil
	if v.history == nil {
		v.setEvents(nil)
		return nil
	}

	total, err := v.history.Count(ctx)
	if err != nil {
		v.err = err
		return err
	}
	events, err := v.history.ListRecent(ctx, v.page)
	if err != nil {
		v.err = err
		return err
	}

	v.total = total
	v.setEvents(events)
	return nil
}

// Prepend shows a just-delivered reminder before the next reload.
func (v *RemindersView) Prepend(ev models.ReminderEvent) {
	if v.page.Page != 1 {
		return
	}
	for _, existing := range v.events {
		if existing.ID == ev.ID {
			return
		}
	}
	events := append([]models.ReminderEvent{ev}, v.events...)
	if len(events) > v.page.Limit() {
		events = events[:v.page.Limit()]
	}
	v.total++
	v.setEvents(events)
}

func (v *RemindersView) setEvents(events []models.ReminderEvent) {
	v.events = events
	rows := make([][]string, len(events))
	for i, ev := range events {
		name := ev.StoreName
		if name == "" {
			name = ev.StoreID
		}
		rows[i] = []string{
			ev.TriggeredAt.In(time.Local).Format(v.timeFormat),
			name,
			strings.Join(ev.Items, ", "),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(v.page.Page, v.totalPages(), v.total)
}

func (v *RemindersView) totalPages() int {
	limit := v.page.Limit()
	pages := (v.total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}

// NextPage moves to the next page if there is one.
func (v *RemindersView) NextPage() bool {
	if v.page.Page >= v.totalPages() {
		return false
	}
	v.page.Page++
	return true
}

// PrevPage moves to the previous page.
func (v *RemindersView) PrevPage() bool {
	if v.page.Page <= 1 {
		return false
	}
	v.page.Page--
	return true
}

// MoveUp moves the selection up.
func (v *RemindersView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *RemindersView) MoveDown() { v.table.MoveDown() }

// Render renders the reminder history.
func (v *RemindersView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("=== REMINDERS ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(errStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.table.Empty() {
		b.WriteString(labelStyle.Render("No reminders yet. They appear when you walk into a store while running low."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Up/Down:Select  PgUp/Dn:Page"))
	return b.String()
}
