package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/config"
	"github.com/mochi-browser/taskbridge/internal/fetch"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Test Page</title></head><body><a href="/next">next</a></body></html>`))
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain body"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	// A goroutine per task keeps timers from queueing behind blocked fetches.
	b := core.NewBridge(core.NewThreadedBackend("threaded", 0), nil)
	t.Cleanup(b.Shutdown)
	return NewSession(b, opts)
}

func drain(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, s.bridge.Drain(ctx))
}

func TestSession_Defaults(t *testing.T) {
	s := newSession(t, Options{})
	assert.Equal(t, config.DefaultLabel, s.Label)
	assert.Equal(t, DefaultTimeout, s.timeout)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Response)
}

func TestSession_FetchHTML(t *testing.T) {
	srv := newServer(t)
	s := newSession(t, Options{})
	s.URLInput = "  " + srv.URL + "/page "

	require.NoError(t, s.Fetch())
	assert.True(t, s.Loading)
	assert.Nil(t, s.Response)
	assert.Contains(t, s.Status, "Loading")

	drain(t, s)

	assert.False(t, s.Loading)
	require.NotNil(t, s.Response)
	assert.Equal(t, http.StatusOK, s.Response.Status)
	require.NotNil(t, s.Document)
	assert.Equal(t, "Test Page", s.Document.Title)
	assert.True(t, s.Document.WellFormed())
	assert.Equal(t, []string{srv.URL + "/page"}, s.History)
	assert.Equal(t, "200 "+srv.URL+"/page", s.Status)
}

func TestSession_FetchPlainTextSkipsAnalysis(t *testing.T) {
	srv := newServer(t)
	s := newSession(t, Options{})
	s.URLInput = srv.URL + "/text"

	require.NoError(t, s.Fetch())
	drain(t, s)

	assert.False(t, s.Loading)
	require.NotNil(t, s.Response)
	assert.Equal(t, "plain body", s.Response.Body)
	assert.Nil(t, s.Document)
}

func TestSession_EmptyURL(t *testing.T) {
	s := newSession(t, Options{})
	s.URLInput = " \t"

	err := s.Fetch()
	require.ErrorIs(t, err, fetch.ErrEmptyURL)

	assert.False(t, s.Loading)
	require.NotNil(t, s.Response)
	assert.Equal(t, 0, s.Response.Status)
	assert.Equal(t, "Error: URL cannot be empty", s.Response.Body)
	assert.Equal(t, 0, s.bridge.PendingCount(), "nothing is spawned for blank input")
}

func TestSession_TransportError(t *testing.T) {
	srv := newServer(t)
	url := srv.URL
	srv.Close()

	s := newSession(t, Options{})
	s.URLInput = url

	require.NoError(t, s.Fetch())
	drain(t, s)

	assert.False(t, s.Loading)
	require.NotNil(t, s.Response)
	assert.Equal(t, 0, s.Response.Status)
	assert.True(t, strings.HasPrefix(s.Response.Body, "Error: "))
	assert.Equal(t, "Error", s.Status)
	assert.Empty(t, s.History)
}

func TestSession_Timeout(t *testing.T) {
	srv := newServer(t)
	s := newSession(t, Options{Timeout: 50 * time.Millisecond})
	s.URLInput = srv.URL + "/slow"

	require.NoError(t, s.Fetch())
	drain(t, s)

	assert.False(t, s.Loading)
	assert.Equal(t, "Timed out", s.Status)
	require.NotNil(t, s.Response)
	assert.Contains(t, s.Response.Body, core.ErrTimeout.Error())
}

func TestSession_Cancel(t *testing.T) {
	srv := newServer(t)
	s := newSession(t, Options{})
	s.URLInput = srv.URL + "/slow"

	require.NoError(t, s.Fetch())
	s.Cancel()

	assert.False(t, s.Loading)
	assert.Equal(t, "Cancelled", s.Status)

	drain(t, s)
	assert.Nil(t, s.Response, "a cancelled load never shows a response")
	assert.Equal(t, "Cancelled", s.Status)

	s.Cancel()
}

func TestSession_NewFetchSupersedesOld(t *testing.T) {
	srv := newServer(t)
	s := newSession(t, Options{})

	s.URLInput = srv.URL + "/slow"
	require.NoError(t, s.Fetch())

	s.URLInput = srv.URL + "/text"
	require.NoError(t, s.Fetch())
	drain(t, s)

	require.NotNil(t, s.Response)
	assert.Equal(t, "plain body", s.Response.Body)
	assert.Equal(t, []string{srv.URL + "/text"}, s.History)
}

func TestSession_HistoryLimit(t *testing.T) {
	s := newSession(t, Options{HistoryLimit: 2})
	s.visit("a")
	s.visit("a")
	s.visit("b")
	s.visit("c")
	assert.Equal(t, []string{"b", "c"}, s.History)
}

func TestSession_SnapshotRestore(t *testing.T) {
	s := newSession(t, Options{})
	s.Label = "Hi"
	s.URLInput = "example.com"
	s.Response = &fetch.Response{
		Status:  404,
		Headers: []fetch.Header{{Name: "x-custom", Value: "value"}},
		Body:    "Not Found",
	}

	state := s.Snapshot()
	assert.Equal(t, config.State{
		Label:    "Hi",
		URLInput: "example.com",
		Response: &config.ResponseState{
			Status:  404,
			Headers: []config.HeaderState{{Name: "x-custom", Value: "value"}},
			Body:    "Not Found",
		},
	}, state)

	restored := newSession(t, Options{})
	restored.Restore(state)
	assert.Equal(t, "Hi", restored.Label)
	assert.Equal(t, "example.com", restored.URLInput)
	assert.Equal(t, s.Response, restored.Response)

	restored.Restore(config.DefaultState())
	assert.Nil(t, restored.Response)
	assert.Equal(t, config.DefaultLabel, restored.Label)
}
