// Package tui provides the terminal console for Stock Up: the pantry,
// the grocery list, nearby stores and a live reminder feed.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/tui/components"
)

// Theme contains all style definitions for the TUI.
type Theme struct {
	PrimaryColor    lipgloss.Color
	SecondaryColor  lipgloss.Color
	AccentColor     lipgloss.Color
	BackgroundColor lipgloss.Color
	ErrorColor      lipgloss.Color
	WarningColor    lipgloss.Color
	SuccessColor    lipgloss.Color
	MutedColor      lipgloss.Color

	Base    lipgloss.Style
	Primary lipgloss.Style
	Accent  lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style

	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Box       lipgloss.Style
	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	TableHeader   lipgloss.Style
	TableRow      lipgloss.Style
	TableRowAlt   lipgloss.Style
	TableSelected lipgloss.Style

	StatusDivider lipgloss.Style
}

type palette struct {
	primary, secondary, accent, background, muted lipgloss.Color
	errorColor, warningColor, successColor        lipgloss.Color
}

// NewTheme creates a new theme based on the color scheme configuration.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeAmber:
		return buildTheme(palette{
			primary: "#FFAA00", secondary: "#AA7700", accent: "#FFCC66",
			background: "#000000", muted: "#664400",
			errorColor: "#FF4444", warningColor: "#FFFF00", successColor: "#FFAA00",
		})
	case config.ColorSchemeWhite:
		return buildTheme(palette{
			primary: "#FFFFFF", secondary: "#AAAAAA", accent: "#FFFFFF",
			background: "#000000", muted: "#666666",
			errorColor: "#FF4444", warningColor: "#FFAA00", successColor: "#00FF00",
		})
	default:
		return buildTheme(palette{
			primary: "#00FF00", secondary: "#00AA00", accent: "#66FF66",
			background: "#000000", muted: "#006600",
			errorColor: "#FF4444", warningColor: "#FFAA00", successColor: "#00FF00",
		})
	}
}

func buildTheme(p palette) *Theme {
	t := &Theme{
		PrimaryColor:    p.primary,
		SecondaryColor:  p.secondary,
		AccentColor:     p.accent,
		BackgroundColor: p.background,
		MutedColor:      p.muted,
		ErrorColor:      p.errorColor,
		WarningColor:    p.warningColor,
		SuccessColor:    p.successColor,
	}

	t.Base = lipgloss.NewStyle().Foreground(p.primary)
	t.Primary = lipgloss.NewStyle().Foreground(p.primary)
	t.Accent = lipgloss.NewStyle().Foreground(p.accent)
	t.Error = lipgloss.NewStyle().Foreground(p.errorColor)
	t.Warning = lipgloss.NewStyle().Foreground(p.warningColor)
	t.Success = lipgloss.NewStyle().Foreground(p.successColor)
	t.Muted = lipgloss.NewStyle().Foreground(p.muted)

	t.Header = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(p.secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true).
		Padding(0, 1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(p.primary).
		Padding(0, 1)

	t.Label = lipgloss.NewStyle().Foreground(p.secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.secondary).
		Padding(0, 1)

	t.Alert = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true)

	t.AlertWarn = lipgloss.NewStyle().
		Foreground(p.warningColor).
		Bold(true)

	t.AlertCrit = lipgloss.NewStyle().
		Foreground(p.errorColor).
		Bold(true)

	t.TableHeader = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.TableRow = lipgloss.NewStyle().Foreground(p.primary)
	t.TableRowAlt = lipgloss.NewStyle().Foreground(p.secondary)

	t.TableSelected = lipgloss.NewStyle().
		Foreground(p.background).
		Background(p.primary).
		Bold(true)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(p.muted).
		SetString(" │ ")

	return t
}

// TableStyles adapts the theme for components.Table.
func (t *Theme) TableStyles() components.Styles {
	return components.Styles{
		Header:   t.TableHeader,
		Row:      t.TableRow,
		RowAlt:   t.TableRowAlt,
		Selected: t.TableSelected,
		Border:   t.Label,
	}
}

// LevelStyle colors a stock level: empty is an error, low a warning.
func (t *Theme) LevelStyle(level models.StockLevel) lipgloss.Style {
	switch level {
	case models.StockLevelEmpty:
		return t.Error.Bold(true)
	case models.StockLevelLow:
		return t.Warning
	default:
		return t.Success
	}
}

const (
	boxHorizontal       = "─"
	boxDoubleHorizontal = "═"
)

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Label.Render(strings.Repeat(boxHorizontal, max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat(boxDoubleHorizontal, max(width, 0)))
}
