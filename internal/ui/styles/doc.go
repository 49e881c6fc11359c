// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the KLU Agent TUI
// and CLI.
//
// Colors are declared as lipgloss.AdaptiveColor pairs. A Theme resolves
// every pair to one side explicitly, so the saved dark/light preference wins
// over the terminal's own background:
//
//	theme := styles.NewTheme("light")
//	fmt.Println(theme.UserLabel.Render("You"))
//
// "system" asks termenv for the terminal background.
package styles
