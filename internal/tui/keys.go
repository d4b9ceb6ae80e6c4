package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Fetch    key.Binding
	Cancel   key.Binding
	Theme    key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Fetch:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "fetch")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Theme:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+c", "quit")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Fetch, k.Cancel, k.PageUp, k.PageDown, k.Theme, k.Quit}
}
