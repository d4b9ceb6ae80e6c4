package page

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/htmltok"
)

const sample = `<!DOCTYPE html>
<html>
<head><title>  Mochi
  Home </title><style>body { color: red }</style></head>
<body>
  <h1>Welcome</h1>
  <p>Read the <a href=" /docs ">docs</a> or <a href='https://example.com'>the <b>site</b></a>.</p>
  <a name="anchor">no href</a>
  <script>var hidden = 1;</script>
  <!-- hidden comment -->
</body>
</html>`

func TestAnalyze(t *testing.T) {
	doc, err := Analyze(sample)
	require.NoError(t, err)

	assert.Equal(t, "Mochi Home", doc.Title)
	assert.Equal(t, []Link{
		{Href: "/docs", Text: "docs"},
		{Href: "https://example.com", Text: "the site"},
	}, doc.Links)
	assert.Equal(t, "Welcome Read the docs or the site . no href", doc.Text)
	assert.NotContains(t, doc.Text, "hidden")
}

func TestAnalyze_PlainText(t *testing.T) {
	doc, err := Analyze(`{"args": {}, "url": "https://httpbin.org/get"}`)
	require.NoError(t, err)
	assert.Empty(t, doc.Title)
	assert.Empty(t, doc.Links)
	assert.Equal(t, `{"args": {}, "url": "https://httpbin.org/get"}`, doc.Text)
}

func runTask(t *testing.T, backend core.Backend, task core.Task[*Document]) core.Outcome[*Document] {
	t.Helper()
	b := core.NewBridge(backend, nil)
	defer b.Shutdown()

	var got core.Outcome[*Document]
	_, err := core.Spawn(b, task, func(o core.Outcome[*Document]) { got = o })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, b.Drain(ctx))
	return got
}

func TestTask_WellFormed(t *testing.T) {
	got := runTask(t, core.NewThreadedBackend("threaded", 1), Task(sample, 4))
	require.True(t, got.IsSuccess(), got.String())

	tokens, err := htmltok.All(sample)
	require.NoError(t, err)

	doc := got.Value
	assert.True(t, doc.WellFormed())
	assert.Equal(t, len(tokens), doc.TokenCount)
	assert.Equal(t, "Mochi Home", doc.Title)
}

func TestTask_RecordsTokenizerError(t *testing.T) {
	body := "<p>before</p><a href='unterminated>after"
	got := runTask(t, core.NewThreadedBackend("threaded", 1), Task(body, 0))
	require.True(t, got.IsSuccess(), got.String())

	doc := got.Value
	assert.False(t, doc.WellFormed())
	assert.ErrorIs(t, doc.TokenError, htmltok.ErrInvalidAttribute)
	assert.Equal(t, 3, doc.TokenCount)
	assert.Contains(t, doc.Text, "before")
}

func TestTask_OneHostTurnPerBatch(t *testing.T) {
	host := core.NewManualHost()
	backend := core.NewCooperativeBackend("cooperative", host)
	b := core.NewBridge(backend, nil)
	defer b.Shutdown()

	body := strings.Repeat("<p>x</p>", 10)
	var got core.Outcome[*Document]
	_, err := core.Spawn(b, Task(body, 10), func(o core.Outcome[*Document]) { got = o })
	require.NoError(t, err)

	host.RunUntilIdle(100)
	// 30 tokens in batches of 10, plus the batch that hits EOF.
	assert.Equal(t, int64(4), backend.Stats().Turns)

	assert.Equal(t, 1, b.Poll())
	require.True(t, got.IsSuccess())
	assert.Equal(t, 30, got.Value.TokenCount)
}

func TestTask_CancelledBetweenBatches(t *testing.T) {
	host := core.NewManualHost()
	b := core.NewBridge(core.NewCooperativeBackend("cooperative", host), nil)
	defer b.Shutdown()

	var got core.Outcome[*Document]
	h, err := core.Spawn(b, Task(strings.Repeat("<br>", 100), 10), func(o core.Outcome[*Document]) { got = o })
	require.NoError(t, err)

	require.True(t, host.RunOnce())
	h.Cancel()
	host.RunUntilIdle(100)

	assert.Equal(t, 1, b.Poll())
	assert.True(t, got.IsCancelled())
}
