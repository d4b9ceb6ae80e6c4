// Package tui is the terminal front end: a bubbletea program whose update
// loop is the bridge's UI context.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/browser"
	"github.com/mochi-browser/taskbridge/internal/fetch"
	"github.com/mochi-browser/taskbridge/internal/page"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// rows used by everything above and below the body viewport
	chromeHeight = 12
)

// fetchMsg starts a load of the URL bar contents.
type fetchMsg struct{}

// Options configures a Model.
type Options struct {
	Theme string
	// FetchOnStart loads the restored URL as soon as the program starts.
	FetchOnStart bool
}

// Model is the bubbletea model. Every method runs on the program's update
// loop, which owns the bridge and the session.
type Model struct {
	bridge  *core.Bridge
	session *browser.Session

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	keys     keyMap
	theme    string
	styles   styles

	fetchOnStart bool
	shownResp    *fetch.Response
	shownDoc     *page.Document
	width        int
	height       int
}

// New builds a model for session, whose work runs on b.
func New(b *core.Bridge, session *browser.Session, opts Options) *Model {
	theme := opts.Theme
	if theme != ThemeLight {
		theme = ThemeDark
	}

	input := textinput.New()
	input.Placeholder = "https://example.com"
	input.Prompt = "URL: "
	input.SetValue(session.URLInput)
	input.Focus()

	m := &Model{
		bridge:       b,
		session:      session,
		input:        input,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport:     viewport.New(defaultWidth, defaultHeight-chromeHeight),
		keys:         defaultKeyMap(),
		theme:        theme,
		styles:       themeStyles(theme),
		fetchOnStart: opts.FetchOnStart,
		width:        defaultWidth,
		height:       defaultHeight,
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, poll}
	if m.fetchOnStart && strings.TrimSpace(m.session.URLInput) != "" {
		cmds = append(cmds, func() tea.Msg { return fetchMsg{} })
	}
	return tea.Batch(cmds...)
}

func poll() tea.Msg { return PollMsg{} }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case PollMsg:
		m.bridge.Poll()

	case fetchMsg:
		m.fetch()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-12, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 3)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.session.Cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Fetch):
			m.fetch()
		case key.Matches(msg, m.keys.Cancel):
			m.session.Cancel()
		case key.Matches(msg, m.keys.Theme):
			m.toggleTheme()
		case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
			m.session.URLInput = m.input.Value()
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m *Model) fetch() {
	m.session.URLInput = m.input.Value()
	// Blank input and rejected spawns are already reflected in the session.
	_ = m.session.Fetch()
}

func (m *Model) toggleTheme() {
	if m.theme == ThemeDark {
		m.theme = ThemeLight
	} else {
		m.theme = ThemeDark
	}
	m.styles = themeStyles(m.theme)
	m.shownResp = nil
}

// Theme returns the active theme name.
func (m *Model) Theme() string { return m.theme }

// refresh re-renders the response pane when the session shows something new.
func (m *Model) refresh() {
	if m.session.Response == m.shownResp && m.session.Document == m.shownDoc {
		return
	}
	m.shownResp = m.session.Response
	m.shownDoc = m.session.Document
	m.viewport.SetContent(m.renderResponse())
	m.viewport.GotoTop()
}

func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.title.Render("URL Fetcher"))
	sb.WriteString("  ")
	sb.WriteString(m.styles.label.Render(m.session.Label))
	sb.WriteByte('\n')
	sb.WriteString(m.styles.input.Render(m.input.View()))
	sb.WriteByte('\n')

	status := m.session.Status
	switch {
	case m.session.Loading:
		sb.WriteString(m.spinner.View() + " " + m.styles.status.Render(status))
	case status == "Error" || status == "Timed out":
		sb.WriteString(m.styles.errStatus.Render(status))
	default:
		sb.WriteString(m.styles.status.Render(status))
	}
	sb.WriteByte('\n')

	if m.session.Response != nil {
		sb.WriteString(m.rule())
		sb.WriteString(m.viewport.View())
		sb.WriteByte('\n')
	}

	sb.WriteString(m.rule())
	sb.WriteString(m.renderHelp())
	return sb.String()
}

func (m *Model) rule() string {
	return m.styles.rule.Render(strings.Repeat("─", max(m.width, 1))) + "\n"
}

func (m *Model) renderResponse() string {
	r := m.session.Response
	if r == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d\n\n", m.styles.section.Render("Status:"), r.Status)

	sb.WriteString(m.styles.section.Render("Headers:") + "\n")
	for _, h := range r.Headers {
		sb.WriteString(m.styles.header.Render(fmt.Sprintf("%s: %s", h.Name, h.Value)) + "\n")
	}

	if d := m.session.Document; d != nil {
		sb.WriteString("\n" + m.styles.section.Render("Page:") + "\n")
		if d.Title != "" {
			fmt.Fprintf(&sb, "title: %s\n", d.Title)
		}
		fmt.Fprintf(&sb, "links: %d, tokens: %d", len(d.Links), d.TokenCount)
		if d.TokenError != nil {
			fmt.Fprintf(&sb, " (%v)", d.TokenError)
		}
		sb.WriteByte('\n')
	}

	sb.WriteString("\n" + m.styles.section.Render("Body:") + "\n")
	sb.WriteString(lipgloss.NewStyle().Width(max(m.width, 1)).Render(r.Body))
	return sb.String()
}

func (m *Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return m.styles.help.Render(strings.Join(parts, "  "))
}
