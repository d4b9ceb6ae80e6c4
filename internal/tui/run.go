package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts a program for m, attaches it to n and blocks until it quits.
// The UI context ends with the program: the bridge's redraw trigger is
// closed and n detached before Run returns.
func Run(m *Model, n *Notifier, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, opts...)
	n.Attach(p)
	_, err := p.Run()
	m.teardown(n)
	return err
}

// teardown closes the redraw trigger first so completions arriving later
// never reach the notifier.
func (m *Model) teardown(n *Notifier) {
	m.bridge.Redraw().Close()
	n.Detach()
}
