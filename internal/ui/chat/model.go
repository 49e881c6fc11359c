// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/session"
	"github.com/kluniversity/klu-agent/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	sidebarWidth    = 30
	minWidthSidebar = 72
	inputHeight     = 3
	maxInputChars   = 2000
)

// Focus is the component receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusHistory
)

// Options configures the chat view.
type Options struct {
	// ExportDir receives ctrl+e exports. Empty means the working directory.
	ExportDir string

	// Exporter renders exports. Nil means plain text.
	Exporter export.Exporter
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	sess *session.Session
	opts Options
	keys KeyMap

	theme    *styles.Theme
	markdown *markdownRenderer

	width  int
	height int
	ready  bool
	focus  Focus

	input    textarea.Model
	viewport viewport.Model
	history  list.Model
	spinner  spinner.Model
	help     help.Model
	showHelp bool

	// pending is the question awaiting an answer in the visible chat.
	pending *session.Turn

	// sources maps bot message indexes to their source line.
	sources map[int]string

	status    string
	statusErr bool
}

// New creates the chat view over sess.
func New(sess *session.Session, opts Options) Model {
	theme := styles.NewTheme(sess.Theme())

	ta := textarea.New()
	ta.Placeholder = "Ask about admissions, courses, placements, fees..."
	ta.ShowLineNumbers = false
	ta.CharLimit = maxInputChars
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = styles.ThinkingSpinner
	sp.Style = theme.Thinking

	m := Model{
		sess:     sess,
		opts:     opts,
		keys:     DefaultKeyMap(),
		theme:    theme,
		input:    ta,
		viewport: viewport.New(80, 20),
		history:  newHistoryList(theme),
		spinner:  sp,
		help:     help.New(),
		sources:  make(map[int]string),
	}
	m.refreshHistory()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Focus returns the focused component.
func (m Model) Focus() Focus {
	return m.focus
}

// Status returns the status line message.
func (m Model) Status() string {
	return m.status
}

// Pending reports whether the visible chat awaits an answer.
func (m Model) Pending() bool {
	return m.pending != nil
}

// =============================================================================
// COMMANDS
// =============================================================================

// resolveCmd finishes turn off the UI goroutine.
func resolveCmd(turn *session.Turn) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{Turn: turn, Reply: turn.Finish(context.Background())}
	}
}

// exportCmd writes the visible chat.
func (m Model) exportCmd() tea.Cmd {
	sess, dir, exporter := m.sess, m.opts.ExportDir, m.opts.Exporter
	return func() tea.Msg {
		path, err := sess.Export(dir, exporter)
		return ExportedMsg{Path: path, Err: err}
	}
}

// =============================================================================
// STATE HELPERS
// =============================================================================

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// resetChatView drops per-chat view state after the session changed chats.
func (m *Model) resetChatView() {
	m.pending = nil
	m.sources = make(map[int]string)
	m.refreshHistory()
	m.refreshViewport()
}

func (m *Model) refreshHistory() {
	idx := m.history.Index()
	m.history.SetItems(historyItems(m.sess.History(), m.sess.CurrentID()))
	if n := len(m.history.Items()); idx >= n && n > 0 {
		idx = n - 1
	}
	m.history.Select(idx)
}

// selectedConversationID returns the highlighted sidebar conversation.
func (m Model) selectedConversationID() string {
	if it, ok := m.history.SelectedItem().(historyItem); ok {
		return it.conv.ID
	}
	return ""
}

func (m *Model) applyTheme(name string) {
	m.theme = styles.NewTheme(name)
	m.history.SetDelegate(historyDelegate{theme: m.theme})
	m.history.Styles.Title = m.theme.SidebarTitle
	m.spinner.Style = m.theme.Thinking
	m.markdown = nil
	m.refreshViewport()
}
