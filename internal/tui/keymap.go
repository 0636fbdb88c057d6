package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review screen's shortcuts.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Apply  key.Binding
	Skip   key.Binding
	Manual key.Binding

	EditRecipient key.Binding
	EditCategory  key.Binding
	EditIcon      key.Binding
	EditAmount    key.Binding
	ToggleType    key.Binding

	// DeleteWord trims the field being edited.
	DeleteWord key.Binding
	Commit     key.Binding
	Cancel     key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("l", "right", "j", "down"),
			key.WithHelp("→/l", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("h", "left", "k", "up"),
			key.WithHelp("←/h", "previous"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("Enter", "apply"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual entry"),
		),
		EditRecipient: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "recipient"),
		),
		EditCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "category"),
		),
		EditIcon: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "icon"),
		),
		EditAmount: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "amount"),
		),
		ToggleType: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "credit/debit"),
		),
		DeleteWord: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("Ctrl+W", "delete word"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "save field"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
