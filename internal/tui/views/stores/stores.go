// Package stores shows the registered stores ranked by distance from the
// last known position.
package stores

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/reminder"
	"github.com/stockup/stockup/internal/tui/components"
)

// Source returns the registered stores.
type Source interface {
	Current() []models.StoreLocation
}

// Locator reports the last known device position.
type Locator interface {
	Last() (models.Coordinate, bool)
}

// StoresView lists registered stores.
type StoresView struct {
	source       Source
	locator      Locator
	radiusMeters float64
	table        *components.Table

	position    models.Coordinate
	hasPosition bool
	count       int
}

// NewStoresView creates a new stores view. radiusMeters marks stores whose
// geofence contains the position.
func NewStoresView(source Source, locator Locator, radiusMeters float64) *StoresView {
	columns := []components.Column{
		{Title: "Store", Width: 22, Weight: 1, Priority: 4},
		{Title: "Distance", Width: 9, Align: lipgloss.Right, Priority: 3},
		{Title: "Here", Width: 4, Priority: 2},
		{Title: "Address", Width: 24, Weight: 1, Priority: 1},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(15)
	table.Focus(true)

	return &StoresView{
		source:       source,
		locator:      locator,
		radiusMeters: radiusMeters,
		table:        table,
	}
}

// SetStyles applies theme colors.
func (v *StoresView) SetStyles(s components.Styles) {
	v.table.SetStyles(s)
}

// Refresh re-reads stores and the position and re-ranks.
func (v *StoresView) Refresh() {
	var all []models.StoreLocation
	if v.source != nil {
		all = v.source.Current()
	}
	v.count = len(all)
	v.hasPosition = false
	if v.locator != nil {
		v.position, v.hasPosition = v.locator.Last()
	}

	rows := make([][]string, 0, len(all))
	if v.hasPosition && len(all) > 0 {
		for _, sd := range reminder.NearestStores(v.position, all, len(all)) {
			here := ""
			if sd.Meters < v.radiusMeters {
				here = "*"
			}
			rows = append(rows, []string{sd.Store.Name, FormatDistance(sd.Meters), here, sd.Store.Address})
		}
	} else {
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
		for _, s := range all {
			rows = append(rows, []string{s.Name, "-", "", s.Address})
		}
	}
	v.table.SetRows(rows)
}

// MoveUp moves the selection up.
func (v *StoresView) MoveUp() { v.table.MoveUp() }

// MoveDown moves the selection down.
func (v *StoresView) MoveDown() { v.table.MoveDown() }

// FormatDistance renders meters for display.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// Render renders the stores view.
func (v *StoresView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("=== NEARBY STORES ==="))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Position: "))
	if v.hasPosition {
		b.WriteString(valueStyle.Render(v.position.String()))
	} else {
		b.WriteString(labelStyle.Render("unknown"))
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("  Stores: %d  Radius: %.0f m", v.count, v.radiusMeters)))
	b.WriteString("\n\n")

	if v.table.Empty() {
		b.WriteString(labelStyle.Render("No stores registered. Run a store refresh to look some up."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Up/Down:Select  r:Refresh nearby stores"))
	return b.String()
}
