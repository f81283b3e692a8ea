// Package grocery renders the needs-to-buy list.
package grocery

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/services/pantry"
)

// Source builds the current grocery list.
type Source interface {
	GroceryList() pantry.GroceryList
}

// GroceryView shows items below threshold grouped by category.
type GroceryView struct {
	source Source
	list   pantry.GroceryList
	offset int
}

// NewGroceryView creates a new grocery list view.
func NewGroceryView(source Source) *GroceryView {
	return &GroceryView{source: source}
}

// Refresh rebuilds the list from the source.
func (v *GroceryView) Refresh() {
	if v.source == nil {
		v.list = pantry.GroceryList{}
		return
	}
	v.list = v.source.GroceryList()
	if v.offset > v.maxOffset() {
		v.offset = v.maxOffset()
	}
}

// List returns the list currently shown.
func (v *GroceryView) List() pantry.GroceryList {
	return v.list
}

// ScrollDown moves the list up by one line.
func (v *GroceryView) ScrollDown() {
	if v.offset < v.maxOffset() {
		v.offset++
	}
}

// ScrollUp moves the list down by one line.
func (v *GroceryView) ScrollUp() {
	if v.offset > 0 {
		v.offset--
	}
}

func (v *GroceryView) maxOffset() int {
	n := len(v.lines(false)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// lines lays out the grouped list, one category header then its entries.
func (v *GroceryView) lines(styled bool) []string {
	headStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	lowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	if !styled {
		headStyle, itemStyle, emptyStyle, lowStyle = lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle()
	}

	var out []string
	for _, g := range v.list.Groups {
		out = append(out, headStyle.Render(strings.ToUpper(g.Category)))
		for _, e := range g.Entries {
			level := lowStyle
			if e.Level == models.StockLevelEmpty {
				level = emptyStyle
			}
			out = append(out, fmt.Sprintf("  [ ] %s  %s  %s",
				itemStyle.Render(e.Item.Name),
				itemStyle.Render(fmt.Sprintf("x%d", e.Quantity)),
				level.Render("("+e.Level.String()+")")))
		}
	}
	return out
}

// Render renders the grocery list within height lines.
func (v *GroceryView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("=== GROCERY LIST ==="))
	b.WriteString("\n\n")

	if v.list.Total == 0 {
		b.WriteString(labelStyle.Render("Nothing to buy. The pantry is stocked."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(labelStyle.Render(fmt.Sprintf("%d items to buy", v.list.Total)))
	b.WriteString("\n\n")

	lines := v.lines(true)
	room := height - 6
	if room < 1 {
		room = 1
	}
	end := v.offset + room
	if end > len(lines) {
		end = len(lines)
	}
	for _, l := range lines[v.offset:end] {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if rest := len(lines) - end; rest > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("... %d more lines", rest)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Up/Down:Scroll  F2:Pantry"))
	return b.String()
}
