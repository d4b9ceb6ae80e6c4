package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// PollMsg tells the model to poll the bridge.
type PollMsg struct{}

// Sender is the part of *tea.Program the notifier needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Notifier is the redraw primitive for a bubbletea program: each request
// becomes a PollMsg in the program's update loop. Create it before the
// bridge, hand Notify to core.NewRedrawTrigger, and Attach the program once
// it exists.
type Notifier struct {
	sender  atomic.Pointer[senderBox]
	dropped atomic.Int64
}

type senderBox struct{ s Sender }

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Attach routes later notifications to s.
func (n *Notifier) Attach(s Sender) {
	n.sender.Store(&senderBox{s: s})
}

// Detach stops routing notifications; later ones are dropped.
func (n *Notifier) Detach() {
	n.sender.Store(nil)
}

// Notify delivers a PollMsg without blocking the caller. Outside
// Attach/Detach the request is counted and dropped; the model polls once on
// start anyway.
func (n *Notifier) Notify() {
	box := n.sender.Load()
	if box == nil {
		n.dropped.Add(1)
		return
	}
	// Program.Send blocks until the update loop reads it.
	go box.s.Send(PollMsg{})
}

// Dropped returns the number of requests made while no program was attached.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }
