// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Crimson is the university brand color: headers, selections, the bot label.
var Crimson = lipgloss.AdaptiveColor{Light: "#9F1239", Dark: "#FB7185"}

// Gold is the secondary accent: source badges and highlights.
var Gold = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

// Sky marks user messages.
var Sky = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

var (
	Emerald = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	Rose    = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FDA4AF"}
	Amber   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}
)

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var (
	Surface       = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1917"}
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F5F5F4", Dark: "#0C0A09"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#D6D3D1", Dark: "#44403C"}
	SelectionBg   = lipgloss.AdaptiveColor{Light: "#FFE4E6", Dark: "#4C0519"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1C1917", Dark: "#F5F5F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#D6D3D1"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#A8A29E", Dark: "#78716C"}
)

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators pair every status color with an ASCII shape.
var StatusIndicators = struct {
	Success, Error, Warning, Info string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// RenderSuccess renders message with the success indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders message with the error indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders message with the warning indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders message with the info indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Sky).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}
