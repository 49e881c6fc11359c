// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/ui/styles"
)

// markdownRenderer wraps a glamour renderer for one theme and width.
type markdownRenderer struct {
	tr    *glamour.TermRenderer
	style string
	width int
}

// newMarkdownRenderer builds a renderer. On failure bot answers are shown
// as plain text.
func newMarkdownRenderer(theme *styles.Theme, width int) *markdownRenderer {
	if width < 20 {
		width = 20
	}
	r := &markdownRenderer{style: theme.GlamourStyle(), width: width}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		log.Printf("MARKDOWN_RENDERER_FAILED | err=%v", err)
		return r
	}
	r.tr = tr
	return r
}

// matches reports whether r can be reused for theme and width.
func (r *markdownRenderer) matches(theme *styles.Theme, width int) bool {
	return r != nil && r.style == theme.GlamourStyle() && r.width == width
}

// Render renders md, falling back to wrapped plain text.
func (r *markdownRenderer) Render(md string) string {
	if r.tr != nil {
		if out, err := r.tr.Render(md); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(r.width).Render(md)
}

// renderTranscript renders the visible messages. sources maps a bot
// message index to the answer's source line.
func renderTranscript(theme *styles.Theme, md *markdownRenderer, msgs []model.Message, sources map[int]string, width int) string {
	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if msg.IsUser() {
			sb.WriteString(theme.UserLabel.Render(msg.Role.Icon() + " " + msg.Role.DisplayName()))
			sb.WriteString("\n")
			sb.WriteString(theme.UserMessage.Width(width - 2).Render(msg.Content))
			continue
		}

		sb.WriteString(theme.BotLabel.Render(msg.Role.Icon() + " " + msg.Role.DisplayName()))
		sb.WriteString("\n")
		sb.WriteString(theme.BotMessage.Render(md.Render(msg.Content)))
		if src := sources[i]; src != "" {
			sb.WriteString("\n")
			sb.WriteString(theme.Source.Render("Source: " + src))
		}
	}
	return sb.String()
}
