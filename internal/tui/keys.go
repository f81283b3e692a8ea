package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	// Navigation
	Up       Key
	Down     Key
	PageUp   Key
	PageDown Key
	Home     Key
	End      Key

	// Actions
	Back     Key
	Quit     Key
	Help     Key
	Add      Key
	Edit     Key
	Delete   Key
	Increase Key
	Decrease Key
	Refresh  Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F10 Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

func bind(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("up", "up", "k"),
		Down:     bind("down", "down", "j"),
		PageUp:   bind("page up", "pgup", "ctrl+u"),
		PageDown: bind("page down", "pgdown", "ctrl+d"),
		Home:     bind("top", "home", "g"),
		End:      bind("bottom", "end", "G"),

		Back:     bind("back", "esc"),
		Quit:     bind("quit", "q", "ctrl+c"),
		Help:     bind("help", "?"),
		Add:      bind("add item", "a"),
		Edit:     bind("edit item", "e"),
		Delete:   bind("remove item", "d", "delete"),
		Increase: bind("one more", "+", "="),
		Decrease: bind("one less", "-", "_"),
		Refresh:  bind("refresh", "r"),

		F1:  bind("Help", "f1"),
		F2:  bind("Pantry", "f2"),
		F3:  bind("Grocery", "f3"),
		F4:  bind("Stores", "f4"),
		F5:  bind("Reminders", "f5"),
		F10: bind("Quit", "f10"),
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// IsFunctionKey checks if the key message is a function key.
func (km KeyMap) IsFunctionKey(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.F1, km.F2, km.F3, km.F4, km.F5, km.F10)
}

// FunctionKeyModule returns the module a function key opens. ok is false
// for F10 and for keys that are not function keys.
func (km KeyMap) FunctionKeyModule(msg tea.KeyMsg) (Module, bool) {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp, true
	case km.F2.Matches(msg):
		return ModulePantry, true
	case km.F3.Matches(msg):
		return ModuleGrocery, true
	case km.F4.Matches(msg):
		return ModuleStores, true
	case km.F5.Matches(msg):
		return ModuleReminders, true
	default:
		return "", false
	}
}

// StatusBarHelp returns the help text for the status bar. Narrow terminals
// get the short form.
func (km KeyMap) StatusBarHelp(width int) string {
	if GetBreakpoint(width) == BreakpointNarrow {
		return "F1 ? F2 Pantry F3 List F4 Stores F10 Quit"
	}
	return "[F1]Help [F2]Pantry [F3]Grocery [F4]Stores [F5]Reminders [F10]Quit"
}
