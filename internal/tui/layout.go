package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/models"
)

// LayoutBreakpoint defines terminal width thresholds for responsive layout.
type LayoutBreakpoint int

const (
	// BreakpointNarrow is for terminals under 60 columns, such as a phone
	// SSH session.
	BreakpointNarrow LayoutBreakpoint = 60
	// BreakpointMedium is for terminals between 60 and 100 columns.
	BreakpointMedium LayoutBreakpoint = 100
	// BreakpointWide is for terminals over 100 columns.
	BreakpointWide LayoutBreakpoint = 140
)

// GetBreakpoint returns the current layout breakpoint for the given width.
func GetBreakpoint(width int) LayoutBreakpoint {
	switch {
	case width < int(BreakpointNarrow):
		return BreakpointNarrow
	case width < int(BreakpointMedium):
		return BreakpointMedium
	default:
		return BreakpointWide
	}
}

// Panel renders a bordered panel with the title set into the top border.
func (t *Theme) Panel(title, content string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.SecondaryColor).
		Width(width-2).
		Padding(0, 1)

	rendered := style.Render(content)
	if title == "" {
		return rendered
	}

	lines := strings.Split(rendered, "\n")
	label := t.Accent.Bold(true).Render(" " + title + " ")
	labelWidth := lipgloss.Width(label)
	top := []rune(lines[0])
	if labelWidth+4 < len(top) {
		lines[0] = string(top[:2]) + label + string(top[2+labelWidth:])
	}
	return strings.Join(lines, "\n")
}

// StockGauge renders a bar showing quantity against threshold, colored by
// stock level. A full bar means the threshold is met.
func (t *Theme) StockGauge(item models.PantryItem, width int) string {
	barWidth := width - 2
	if barWidth < 4 {
		barWidth = 4
	}

	ratio := 1.0
	if item.Threshold > 0 {
		ratio = float64(item.Quantity) / float64(item.Threshold)
	}
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}

	filled := int(ratio * float64(barWidth))
	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
	return t.LevelStyle(item.StockLevel()).Render(bar)
}

// Truncate shortens a string to fit within maxWidth display cells, adding
// an ellipsis if needed.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	if maxWidth == 1 {
		return string(runes[:1])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// PadRight pads a string to the given width with spaces.
func PadRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// ContentWidth returns the usable content width, capped between min and max.
func ContentWidth(termWidth, minWidth, maxWidth int) int {
	w := termWidth
	if w < minWidth {
		w = minWidth
	}
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	return w
}

// ContentHeight returns the usable content height after subtracting chrome.
// chromeLines is the total lines used by header, footer, alert bar, separators.
func ContentHeight(termHeight, chromeLines int) int {
	h := termHeight - chromeLines
	if h < 5 {
		h = 5
	}
	return h
}
