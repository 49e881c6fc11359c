// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/session"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case ReplyMsg:
		return m.handleReply(msg)

	case ExportedMsg:
		return m.handleExported(msg)

	case spinner.TickMsg:
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The history filter prompt owns the keyboard while it is open.
	if m.focus == FocusHistory && m.history.SettingFilter() {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	if m.status != "" {
		m.setStatus("", false)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.sess.NewChat()
		m.resetChatView()
		m.setStatus("Started a new chat", false)
		return m.focusInput(), nil

	case key.Matches(msg, m.keys.Delete):
		return m.deleteConversation()

	case key.Matches(msg, m.keys.Clear):
		if err := m.sess.Clear(); err != nil {
			m.setStatus(fmt.Sprintf("Clear failed: %v", err), true)
		}
		m.resetChatView()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.ToggleTheme):
		theme, err := m.sess.ToggleTheme()
		if err != nil {
			m.setStatus(fmt.Sprintf("Theme change failed: %v", err), true)
			return m, nil
		}
		m.applyTheme(theme)
		m.setStatus("Theme: "+theme, false)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusInput && m.sidebarVisible() {
			return m.focusHistory(), nil
		}
		return m.focusInput(), nil
	}

	if m.focus == FocusHistory {
		return m.handleHistoryKey(msg)
	}

	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return m.focusInput(), nil

	case key.Matches(msg, m.keys.Load):
		id := m.selectedConversationID()
		if id == "" {
			return m, nil
		}
		if err := m.sess.Load(id); err != nil {
			m.setStatus(fmt.Sprintf("Could not open conversation: %v", err), true)
			m.refreshHistory()
			return m, nil
		}
		m.resetChatView()
		return m.focusInput(), nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m Model) focusInput() Model {
	m.focus = FocusInput
	m.input.Focus()
	return m
}

func (m Model) focusHistory() Model {
	m.focus = FocusHistory
	m.input.Blur()
	return m
}

// =============================================================================
// ACTIONS
// =============================================================================

// send submits the input. Blank input is ignored; a send while an answer is
// pending is refused and the input is kept.
func (m Model) send() (tea.Model, tea.Cmd) {
	turn, err := m.sess.Begin(m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		return m, nil
	case errors.Is(err, session.ErrBusy):
		m.setStatus("Still answering the previous question", true)
		return m, nil
	case err != nil:
		m.setStatus(err.Error(), true)
		return m, nil
	}

	m.input.Reset()
	m.pending = turn
	m.refreshViewport()
	return m, tea.Batch(m.spinner.Tick, resolveCmd(turn))
}

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	if msg.Turn == m.pending {
		m.pending = nil
	}
	if msg.Reply.Discarded {
		return m, nil
	}

	msgs := m.sess.Messages()
	if n := len(msgs); n > 0 && msgs[n-1].IsBot() {
		m.sources[n-1] = msg.Reply.Source
	}
	if msg.Reply.SaveErr != nil {
		m.setStatus(fmt.Sprintf("Could not save conversation: %v", msg.Reply.SaveErr), true)
	}
	m.refreshHistory()
	m.refreshViewport()
	return m, nil
}

// deleteConversation deletes the highlighted conversation when the sidebar
// has focus, otherwise the active one.
func (m Model) deleteConversation() (tea.Model, tea.Cmd) {
	id := m.sess.CurrentID()
	if m.focus == FocusHistory {
		id = m.selectedConversationID()
	}
	if id == "" {
		return m, nil
	}

	wasActive := id == m.sess.CurrentID()
	if err := m.sess.Delete(id); err != nil {
		m.setStatus(fmt.Sprintf("Delete failed: %v", err), true)
		return m, nil
	}
	if wasActive {
		m.resetChatView()
	} else {
		m.refreshHistory()
	}
	m.setStatus("Conversation deleted", false)
	return m, nil
}

func (m Model) handleExported(msg ExportedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, export.ErrNothingToExport):
		m.setStatus("Nothing to export yet", false)
	case msg.Err != nil:
		log.Printf("EXPORT_FAILED | err=%v", msg.Err)
		m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
	default:
		m.setStatus("Exported to "+msg.Path, false)
	}
	return m, nil
}
