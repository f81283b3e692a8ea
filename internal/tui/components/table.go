// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. Width is the preferred width. Columns with
// a Weight share leftover space in proportion; when the terminal is too
// narrow, the lowest Priority columns are dropped first.
type Column struct {
	Title    string
	Width    int
	MinWidth int
	Weight   float64
	Priority int
	Align    lipgloss.Position
}

// CellStyleFunc overrides the style of a single unselected cell. Returning
// false keeps the row style.
type CellStyleFunc func(row, col int, value string) (lipgloss.Style, bool)

// Styles groups the table's styles.
type Styles struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	RowAlt   lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
}

// DefaultStyles returns the green console styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#66FF66")),
		Row:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		RowAlt:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		Selected: lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000")),
		Border:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
	}
}

const (
	separator    = " | "
	rowPadding   = 2
	ellipsis     = "…"
	defaultRows  = 10
	minFlexWidth = 3
)

// Table is a selectable table with responsive column widths.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool
	styles      Styles
	cellStyle   CellStyleFunc

	currentPage int
	totalPages  int
	totalRows   int
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:     columns,
		rows:        [][]string{},
		visibleRows: defaultRows,
		styles:      DefaultStyles(),
	}
}

// SetRows replaces the table data, keeping the selection in range.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.clampOffset()
}

// SetPagination sets pagination info shown under the rows.
func (t *Table) SetPagination(page, totalPages, totalRows int) {
	t.currentPage = page
	t.totalPages = totalPages
	t.totalRows = totalRows
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
	t.clampOffset()
}

// SetStyles sets the table styles.
func (t *Table) SetStyles(s Styles) {
	t.styles = s
}

// SetCellStyle installs a per-cell style override.
func (t *Table) SetCellStyle(fn CellStyleFunc) {
	t.cellStyle = fn
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the currently selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// PageUp moves up one page.
func (t *Table) PageUp() {
	t.selected -= t.visibleRows
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected
}

// PageDown moves down one page.
func (t *Table) PageDown() {
	t.selected += t.visibleRows
	if t.selected >= len(t.rows) {
		t.selected = len(t.rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected - t.visibleRows + 1
	if t.offset < 0 {
		t.offset = 0
	}
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.offset = t.selected - t.visibleRows + 1
		if t.offset < 0 {
			t.offset = 0
		}
	}
}

func (t *Table) clampOffset() {
	if t.selected < t.offset {
		t.offset = t.selected
	}
	if t.selected >= t.offset+t.visibleRows {
		t.offset = t.selected - t.visibleRows + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// Render renders the table at its preferred column widths.
func (t *Table) Render() string {
	return t.RenderResponsive(0)
}

// RenderResponsive renders the table to fit within width. A width of zero
// or less uses the preferred column widths.
func (t *Table) RenderResponsive(width int) string {
	widths := t.computeWidths(width)

	total := rowPadding
	visible := 0
	for _, w := range widths {
		if w > 0 {
			total += w
			visible++
		}
	}
	if visible > 1 {
		total += (visible - 1) * len(separator)
	}
	rule := t.styles.Border.Render(strings.Repeat("-", total))

	var b strings.Builder
	b.WriteString(t.renderRow(-1, t.headers(), widths, t.styles.Header, false))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	end := t.offset + t.visibleRows
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.offset; i < end; i++ {
		isSelected := i == t.selected && t.focused
		style := t.styles.Row
		switch {
		case isSelected:
			style = t.styles.Selected
		case (i-t.offset)%2 == 1:
			style = t.styles.RowAlt
		}
		b.WriteString(t.renderRow(i, t.rows[i], widths, style, isSelected))
		b.WriteString("\n")
	}

	if t.totalPages > 0 {
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(t.styles.Border.Render(fmt.Sprintf("Page %d/%d | %d total", t.currentPage, t.totalPages, t.totalRows)))
	}

	return b.String()
}

// computeWidths returns one width per column; zero means the column is
// hidden at this terminal width.
func (t *Table) computeWidths(available int) []int {
	widths := make([]int, len(t.columns))
	if available <= 0 {
		for i, col := range t.columns {
			widths[i] = col.Width
		}
		return widths
	}

	visible := make([]bool, len(t.columns))
	for i := range visible {
		visible[i] = true
	}

	// Drop the lowest priority column until the preferred widths fit.
	for {
		need, count := rowPadding, 0
		for i, col := range t.columns {
			if visible[i] {
				need += col.Width
				count++
			}
		}
		if count > 1 {
			need += (count - 1) * len(separator)
		}
		if need <= available || count <= 1 {
			break
		}
		drop := -1
		for i, col := range t.columns {
			if visible[i] && (drop < 0 || col.Priority < t.columns[drop].Priority) {
				drop = i
			}
		}
		visible[drop] = false
	}

	used, count := rowPadding, 0
	totalWeight := 0.0
	for i, col := range t.columns {
		if !visible[i] {
			continue
		}
		widths[i] = col.Width
		used += col.Width
		count++
		totalWeight += col.Weight
	}
	if count > 1 {
		used += (count - 1) * len(separator)
	}

	if spare := available - used; spare > 0 && totalWeight > 0 {
		for i, col := range t.columns {
			if visible[i] && col.Weight > 0 {
				widths[i] += int(float64(spare) * col.Weight / totalWeight)
			}
		}
	}

	for i, col := range t.columns {
		if visible[i] && widths[i] < col.MinWidth {
			widths[i] = col.MinWidth
		}
		if visible[i] && widths[i] < 1 {
			widths[i] = minFlexWidth
		}
	}
	return widths
}

func (t *Table) headers() []string {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Title
	}
	return headers
}

func (t *Table) renderRow(row int, cells []string, widths []int, style lipgloss.Style, isSelected bool) string {
	var parts []string

	for i, col := range t.columns {
		w := widths[i]
		if w <= 0 {
			continue
		}
		raw := ""
		if i < len(cells) {
			raw = cells[i]
		}
		cell := fit(raw, w, col.Align)

		s := style
		if row >= 0 && !isSelected && t.cellStyle != nil {
			if override, ok := t.cellStyle(row, i, raw); ok {
				s = override
			}
		}
		parts = append(parts, s.Render(cell))
	}

	return " " + strings.Join(parts, separator) + " "
}

// fit truncates or pads s to exactly width display cells.
func fit(s string, width int, align lipgloss.Position) string {
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + ellipsis
	}

	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + s
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	default:
		return s + strings.Repeat(" ", pad)
	}
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}
