// Package pantry provides the console views for tracked pantry items.
package pantry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/tui/components"
)

// Source lists the tracked items.
type Source interface {
	List() []models.PantryItem
}

// LevelStyler colors a stock level.
type LevelStyler func(models.StockLevel) lipgloss.Style

const (
	colItem = iota
	colQty
	colMin
	colLevel
	colCategory
)

// PantryView displays the pantry as a table with stock levels.
type PantryView struct {
	source     Source
	table      *components.Table
	items      []models.PantryItem
	levelStyle LevelStyler
	timeFormat string
}

// NewPantryView creates a new pantry view.
func NewPantryView(source Source) *PantryView {
	columns := []components.Column{
		{Title: "Item", Width: 16, Weight: 1, Priority: 5},
		{Title: "Qty", Width: 4, Align: lipgloss.Right, Priority: 4},
		{Title: "Min", Width: 4, Align: lipgloss.Right, Priority: 2},
		{Title: "Level", Width: 6, Priority: 3},
		{Title: "Category", Width: 15, Priority: 1},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	v := &PantryView{
		source:     source,
		table:      table,
		levelStyle: defaultLevelStyle,
		timeFormat: "15:04",
	}
	table.SetCellStyle(v.styleCell)
	return v
}

func defaultLevelStyle(level models.StockLevel) lipgloss.Style {
	switch level {
	case models.StockLevelEmpty:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	case models.StockLevelLow:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	}
}

// SetStyles applies theme colors.
func (v *PantryView) SetStyles(table components.Styles, level LevelStyler) {
	v.table.SetStyles(table)
	if level != nil {
		v.levelStyle = level
	}
}

// SetTimeFormat sets the layout used for the last-updated time.
func (v *PantryView) SetTimeFormat(layout string) {
	if layout != "" {
		v.timeFormat = layout
	}
}

// SetVisibleRows sets how many rows fit on screen.
func (v *PantryView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

func (v *PantryView) styleCell(row, col int, _ string) (lipgloss.Style, bool) {
	if col != colLevel || row >= len(v.items) {
		return lipgloss.Style{}, false
	}
	return v.levelStyle(v.items[row].StockLevel()), true
}

// Refresh re-reads items from the source.
func (v *PantryView) Refresh() {
	if v.source == nil {
		v.SetItems(nil)
		return
	}
	v.SetItems(v.source.List())
}

// SetItems replaces the displayed items.
func (v *PantryView) SetItems(items []models.PantryItem) {
	v.items = items

	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{
			item.Name,
			strconv.Itoa(item.Quantity),
			strconv.Itoa(item.Threshold),
			item.StockLevel().String(),
			item.Category,
		}
	}
	v.table.SetRows(rows)
}

// Select moves the selection to the item with id, if present.
func (v *PantryView) Select(id string) {
	for i, item := range v.items {
		if item.ID == id {
			v.table.GoToTop()
			for j := 0; j < i; j++ {
				v.table.MoveDown()
			}
			return
		}
	}
}

// MoveUp moves the selection up.
func (v *PantryView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *PantryView) MoveDown() { v.table.MoveDown() }

// PageUp moves up one screen.
func (v *PantryView) PageUp() { v.table.PageUp() }

// PageDown moves down one screen.
func (v *PantryView) PageDown() { v.table.PageDown() }

// GoToTop selects the first item.
func (v *PantryView) GoToTop() { v.table.GoToTop() }

// GoToBottom selects the last item.
func (v *PantryView) GoToBottom() { v.table.GoToBottom() }

// SelectedItem returns the currently selected item.
func (v *PantryView) SelectedItem() (models.PantryItem, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.items) {
		return v.items[idx], true
	}
	return models.PantryItem{}, false
}

// Summary counts items by stock level.
func (v *PantryView) Summary() (total, low, empty int) {
	for _, item := range v.items {
		switch item.StockLevel() {
		case models.StockLevelLow:
			low++
		case models.StockLevelEmpty:
			empty++
		}
	}
	return len(v.items), low, empty
}

// Render renders the pantry view.
func (v *PantryView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("=== PANTRY ==="))
	b.WriteString("\n\n")

	total, low, empty := v.Summary()
	b.WriteString(labelStyle.Render("Tracked: "))
	b.WriteString(valueStyle.Render(strconv.Itoa(total)))
	b.WriteString(labelStyle.Render("  Low: "))
	b.WriteString(v.levelStyle(models.StockLevelLow).Render(strconv.Itoa(low)))
	b.WriteString(labelStyle.Render("  Empty: "))
	b.WriteString(v.levelStyle(models.StockLevelEmpty).Render(strconv.Itoa(empty)))
	b.WriteString("\n\n")

	if v.table.Empty() {
		b.WriteString(labelStyle.Render("No items tracked. Press a to add one."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width > 0 && width < 60 {
		b.WriteString(labelStyle.Render("+/-:Qty  a:Add  e:Edit  d:Del"))
	} else {
		b.WriteString(labelStyle.Render("Up/Down:Select  +/-:Adjust  a:Add  Enter:Detail  e:Edit  d:Remove  PgUp/Dn:Page"))
	}

	return b.String()
}

// RenderDetail renders one item with its restock suggestion.
func (v *PantryView) RenderDetail(item models.PantryItem) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Width(16)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("=== " + strings.ToUpper(item.Name) + " ==="))
	b.WriteString("\n\n")

	line := func(label, value string) {
		b.WriteString(labelStyle.Render(label+":") + " " + valueStyle.Render(value) + "\n")
	}
	line("Category", item.Category)
	line("Quantity", strconv.Itoa(item.Quantity))
	line("Threshold", strconv.Itoa(item.Threshold))
	b.WriteString(labelStyle.Render("Level:") + " " + v.levelStyle(item.StockLevel()).Render(item.StockLevel().String()) + "\n")
	if n := item.RestockQuantity(); n > 0 {
		line("Buy", fmt.Sprintf("%d more", n))
	}
	if !item.UpdatedAt.IsZero() {
		line("Updated", item.UpdatedAt.In(time.Local).Format(v.timeFormat))
	}
	return b.String()
}
