// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/resolver"
	"github.com/kluniversity/klu-agent/internal/ui/styles"
)

// answerRenderer renders bot markdown for the terminal. Without colors
// answers are printed as written.
type answerRenderer struct {
	tr *glamour.TermRenderer
}

func newAnswerRenderer(theme string, wordWrap int) *answerRenderer {
	if !ColorsEnabled() {
		return &answerRenderer{}
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.ResolveName(theme)),
		glamour.WithWordWrap(wrapWidth(wordWrap)),
		glamour.WithEmoji(),
	)
	if err != nil {
		return &answerRenderer{}
	}
	return &answerRenderer{tr: tr}
}

// Render returns md ready to print, without a trailing newline.
func (r *answerRenderer) Render(md string) string {
	if r.tr != nil {
		if out, err := r.tr.Render(md); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return strings.TrimRight(md, "\n")
}

// printAnswer writes an answer and its source line.
func printAnswer(w io.Writer, r *answerRenderer, ans resolver.Answer) {
	fmt.Fprintln(w, r.Render(ans.Text))
	if ans.Source != "" {
		fmt.Fprintln(w, RenderConditional(DimStyle, "Source: "+ans.Source))
	}
}

// printTranscript writes msgs with role headings. Bot messages go through r.
func printTranscript(w io.Writer, r *answerRenderer, msgs []model.Message) {
	for i, msg := range msgs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading := msg.Role.Icon() + " " + msg.Role.DisplayName()
		if msg.IsUser() {
			fmt.Fprintln(w, RenderConditional(UserStyle, heading))
			fmt.Fprintln(w, msg.Content)
			continue
		}
		fmt.Fprintln(w, RenderConditional(BotStyle, heading))
		fmt.Fprintln(w, r.Render(msg.Content))
	}
}
