package models

import (
	"strings"
	"time"
)

// DwellState tracks a device's presence relative to one store.
type DwellState int

const (
	DwellOutside DwellState = iota
	DwellJustEntered
	DwellInside
)

func (d DwellState) String() string {
	switch d {
	case DwellOutside:
		return "outside"
	case DwellJustEntered:
		return "just_entered"
	case DwellInside:
		return "inside"
	default:
		return "unknown"
	}
}

// ReminderEvent is a single notification decision made on store entry.
type ReminderEvent struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	StoreName   string    `json:"store_name"`
	TriggeredAt time.Time `json:"triggered_at"`
	Items       []string  `json:"items"`
}

// Title is the notification headline.
func (e ReminderEvent) Title() string {
	name := e.StoreName
	if name == "" {
		name = e.StoreID
	}
	return "You're near " + name
}

// Body lists the low-stock items.
func (e ReminderEvent) Body() string {
	return "Running low on: " + strings.Join(e.Items, ", ")
}

// NotificationID is stable per store so a platform sink replaces rather
// than stacks reminders for the same store.
func (e ReminderEvent) NotificationID() string {
	return "stockup.reminder." + e.StoreID
}
