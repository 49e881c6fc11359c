// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat view for KLU Agent.

# Layout

	┌ History ─────┐  KLU Agent                       [ONLINE]
	│ > Admissions │  👤 You
	│   Fees       │  │ When do admissions open?
	│              │  🤖 KLU Agent
	│              │  ## Admissions ...
	│              │  Source: KLU Knowledge Base — Admissions (offline)
	└──────────────┘  ─────────────────────────────────────────
	                  > Ask about admissions, courses, placements...
	 enter send · ctrl+n new · ctrl+d delete · ctrl+e export · ?

The sidebar is a bubbles list of saved conversations (newest first, "/"
filters). Bot answers are Markdown rendered with glamour. While an answer
is pending a spinner shows "Thinking..." and further sends are refused.

# Usage

	m := chat.New(sess, chat.Options{ExportDir: cfg.Export.Dir})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
	    return err
	}
*/
package chat
