// Package browser holds the URL-fetcher session shared by the terminal and
// web front ends. All Session methods and fields belong to the UI context.
package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/config"
	"github.com/mochi-browser/taskbridge/internal/fetch"
	"github.com/mochi-browser/taskbridge/internal/page"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultHistoryLimit = 50
)

// Options configures a Session. Zero fields take defaults.
type Options struct {
	Client       *fetch.Client
	Timeout      time.Duration
	Batch        int
	HistoryLimit int
}

// Session is the state behind the URL bar. Fields are read by the view and
// written only by Session methods and the callbacks they spawn.
type Session struct {
	Label    string
	URLInput string
	Response *fetch.Response
	Document *page.Document
	Loading  bool
	Status   string
	History  []string

	bridge       *core.Bridge
	client       *fetch.Client
	timeout      time.Duration
	batch        int
	historyLimit int

	current *core.TaskHandle
	// generation identifies the latest load; callbacks of older loads are dropped.
	generation uint64
}

// NewSession returns an idle session that spawns its work on b.
func NewSession(b *core.Bridge, opts Options) *Session {
	s := &Session{
		Label:        config.DefaultLabel,
		bridge:       b,
		client:       opts.Client,
		timeout:      opts.Timeout,
		batch:        opts.Batch,
		historyLimit: opts.HistoryLimit,
	}
	if s.client == nil {
		s.client = fetch.New(fetch.Options{})
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.batch <= 0 {
		s.batch = page.DefaultBatch
	}
	if s.historyLimit <= 0 {
		s.historyLimit = DefaultHistoryLimit
	}
	return s
}

// Fetch loads URLInput. Blank input shows an error response without
// spawning anything. A load already in flight is cancelled first.
func (s *Session) Fetch() error {
	url, err := fetch.NormalizeURL(s.URLInput)
	if err != nil {
		s.Cancel()
		s.Response = fetch.ErrorResponse(err)
		s.Document = nil
		s.Status = "Error"
		return err
	}

	s.Cancel()
	s.generation++
	gen := s.generation

	s.Response = nil
	s.Document = nil
	s.Loading = true
	s.Status = "Loading " + url

	task := s.client.Task(s.bridge.Backend().Capability(), url)
	handle, err := core.SpawnWithTimeout(s.bridge, task, s.timeout, func(o core.Outcome[*fetch.Response]) {
		if gen != s.generation {
			return
		}
		s.fetched(gen, url, o)
	})
	if err != nil {
		return err
	}
	s.current = handle
	return nil
}

// Cancel abandons the current load, if any.
func (s *Session) Cancel() {
	if !s.Loading {
		return
	}
	s.current.Cancel()
	s.current = nil
	s.generation++
	s.Loading = false
	s.Status = "Cancelled"
}

func (s *Session) fetched(gen uint64, url string, o core.Outcome[*fetch.Response]) {
	s.current = nil
	switch {
	case o.IsSuccess():
		s.Response = o.Value
		s.visit(url)
		s.Status = fmt.Sprintf("%d %s", o.Value.Status, url)
		if !isHTML(o.Value) {
			s.Loading = false
			return
		}
		s.analyze(gen, o.Value.Body)
	case o.IsCancelled():
		s.Loading = false
		s.Status = "Cancelled"
	default:
		s.Loading = false
		s.Response = fetch.ErrorResponse(o.Err)
		if errors.Is(o.Err, core.ErrTimeout) {
			s.Status = "Timed out"
		} else {
			s.Status = "Error"
		}
	}
}

// analyze runs the page task for body; Loading stays set until it finishes.
func (s *Session) analyze(gen uint64, body string) {
	handle, err := core.Spawn(s.bridge, page.Task(body, s.batch), func(o core.Outcome[*page.Document]) {
		if gen != s.generation {
			return
		}
		s.current = nil
		s.Loading = false
		if o.IsSuccess() {
			s.Document = o.Value
		}
	})
	if err == nil {
		s.current = handle
	}
}

func (s *Session) visit(url string) {
	if n := len(s.History); n > 0 && s.History[n-1] == url {
		return
	}
	s.History = append(s.History, url)
	if over := len(s.History) - s.historyLimit; over > 0 {
		s.History = append([]string(nil), s.History[over:]...)
	}
}

func isHTML(r *fetch.Response) bool {
	if ct, ok := r.Header("content-type"); ok {
		return strings.Contains(strings.ToLower(ct), "html")
	}
	return strings.HasPrefix(strings.TrimSpace(r.Body), "<")
}

// Snapshot returns the persisted part of the session.
func (s *Session) Snapshot() config.State {
	state := config.State{Label: s.Label, URLInput: s.URLInput}
	if r := s.Response; r != nil {
		rs := &config.ResponseState{Status: r.Status, Body: r.Body}
		for _, h := range r.Headers {
			rs.Headers = append(rs.Headers, config.HeaderState{Name: h.Name, Value: h.Value})
		}
		state.Response = rs
	}
	return state
}

// Restore replaces the persisted part of the session. Any load in flight is
// cancelled.
func (s *Session) Restore(state config.State) {
	s.Cancel()
	s.Label = state.Label
	s.URLInput = state.URLInput
	s.Response = nil
	s.Document = nil
	if rs := state.Response; rs != nil {
		r := &fetch.Response{Status: rs.Status, Body: rs.Body}
		for _, h := range rs.Headers {
			r.Headers = append(r.Headers, fetch.Header{Name: h.Name, Value: h.Value})
		}
		s.Response = r
	}
	s.Status = ""
}
