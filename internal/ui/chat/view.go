// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/ui/styles"
)

var suggestions = []string{
	"How do I apply for admission?",
	"What B.Tech programs are offered?",
	"Tell me about placements",
	"What is the fee structure?",
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) sidebarVisible() bool {
	return m.width >= minWidthSidebar
}

func (m Model) chatWidth() int {
	w := m.width
	if m.sidebarVisible() {
		w -= sidebarWidth + 1
	}
	if w < 20 {
		w = 20
	}
	return w
}

// viewportHeight leaves room for the header, thinking line, input and
// status bar.
func (m Model) viewportHeight() int {
	h := m.height - 1 - 1 - (inputHeight + 1) - 1
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) layout() {
	w := m.chatWidth()
	m.viewport.Width = w
	m.viewport.Height = m.viewportHeight()
	m.input.SetWidth(w)

	listH := m.height - 4
	if listH < 2 {
		listH = 2
	}
	m.history.SetSize(sidebarWidth-4, listH)
	m.refreshViewport()
}

// refreshViewport re-renders the transcript and scrolls to the end.
func (m *Model) refreshViewport() {
	w := m.chatWidth()
	if !m.markdown.matches(m.theme, w-2) {
		m.markdown = newMarkdownRenderer(m.theme, w-2)
	}

	msgs := m.sess.Messages()
	if len(msgs) == 0 {
		m.viewport.SetContent(m.welcomeView(w))
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(renderTranscript(m.theme, m.markdown, msgs, m.sources, w))
	m.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	w := m.chatWidth()

	content := m.viewport.View()
	if m.showHelp {
		m.help.ShowAll = true
		content = lipgloss.NewStyle().
			Width(w).
			Height(m.viewport.Height).
			Padding(1, 2).
			Render(m.help.View(m.keys))
	}

	thinking := ""
	if m.pending != nil {
		thinking = m.spinner.View() + m.theme.Thinking.Render(" "+styles.ThinkingText)
	}

	chat := lipgloss.JoinVertical(lipgloss.Left,
		content,
		thinking,
		m.theme.Input.Width(w).Render(m.input.View()),
	)

	body := chat
	if m.sidebarVisible() {
		box := m.theme.Sidebar
		if m.focus == FocusHistory {
			box = m.theme.SidebarFocused
		}
		sidebar := box.
			Width(sidebarWidth - 2).
			Height(m.height - 4).
			Render(m.history.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", chat)
	}

	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		body,
		m.statusView(),
	))
}

func (m Model) headerView() string {
	left := m.theme.Brand.Render("🎓 KLU Agent") + m.theme.Badge.Render("  University Assistant")

	badge := offline.StatusBadge()
	if badge != "" {
		badge = m.theme.Offline.Render(badge)
	} else {
		badge = m.theme.Badge.Render(m.theme.Name)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(badge) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + badge)
}

func (m Model) statusView() string {
	if m.status != "" {
		style := m.theme.StatusBar
		if m.statusErr {
			style = m.theme.StatusError
		}
		return style.Width(m.width).Render(m.status)
	}
	m.help.ShowAll = false
	return m.theme.StatusBar.Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) welcomeView(width int) string {
	var sb strings.Builder
	sb.WriteString(m.theme.WelcomeTitle.Render("Welcome to KLU Agent"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.WelcomeText.Width(width - 2).Render(
		"Your assistant for KL University. Ask about admissions, courses, " +
			"placements, campus life, events, hostels and fees."))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.WelcomeText.Render("Try asking:"))
	for _, s := range suggestions {
		sb.WriteString("\n")
		sb.WriteString(m.theme.Suggestion.Render("• " + s))
	}
	return sb.String()
}
