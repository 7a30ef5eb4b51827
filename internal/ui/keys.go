package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the command bindings. Digits, '.' and ',' always go to the
// focused amount field, so no binding uses them.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Fields
	Next  key.Binding
	Prev  key.Binding
	Clear key.Binding

	// Actions
	Refresh key.Binding
	Copy    key.Binding
	Share   key.Binding
	Logs    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close overlay"),
		),

		Next: key.NewBinding(
			key.WithKeys("tab", "down", "j", "enter"),
			key.WithHelp("tab/j", "Next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up", "k"),
			key.WithHelp("shift+tab/k", "Previous field"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Clear field"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh rates"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Copy amounts"),
		),
		Share: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Share links"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Show log"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Copy, k.Share, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Clear},
		{k.Refresh, k.Copy, k.Share},
		{k.Logs, k.CycleTheme, k.Help, k.Escape, k.Quit},
	}
}
