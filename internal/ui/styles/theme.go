// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names.
const (
	ThemeDark   = "dark"
	ThemeLight  = "light"
	ThemeSystem = "system"
)

// Theme holds the styled components for one color scheme.
type Theme struct {
	Name   string
	IsDark bool

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	App     lipgloss.Style
	Header  lipgloss.Style
	Brand   lipgloss.Style
	Badge   lipgloss.Style
	Divider lipgloss.Style

	// ==========================================================================
	// HISTORY SIDEBAR
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	SidebarTitle   lipgloss.Style
	HistoryItem    lipgloss.Style
	HistorySel     lipgloss.Style
	HistoryActive  lipgloss.Style
	HistoryMeta    lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel   lipgloss.Style
	BotLabel    lipgloss.Style
	UserMessage lipgloss.Style
	BotMessage  lipgloss.Style
	Source      lipgloss.Style
	Offline     lipgloss.Style

	// ==========================================================================
	// WELCOME, INPUT AND STATUS
	// ==========================================================================

	WelcomeTitle lipgloss.Style
	WelcomeText  lipgloss.Style
	Suggestion   lipgloss.Style
	Input        lipgloss.Style
	Thinking     lipgloss.Style
	StatusBar    lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// ResolveName maps a theme preference to dark or light. "system" and
// unknown names follow the terminal background.
func ResolveName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		return ThemeDark
	case ThemeLight:
		return ThemeLight
	}
	if termenv.HasDarkBackground() {
		return ThemeDark
	}
	return ThemeLight
}

// NewTheme creates the theme for name ("dark", "light" or "system").
func NewTheme(name string) *Theme {
	resolved := ResolveName(name)
	t := &Theme{
		Name:   resolved,
		IsDark: resolved == ThemeDark,
	}
	t.initStyles()
	return t
}

// Color picks the side of c that matches the theme.
func (t *Theme) Color(c lipgloss.AdaptiveColor) lipgloss.Color {
	if t.IsDark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

// GlamourStyle returns the glamour standard style for bot markdown.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	c := t.Color

	t.App = lipgloss.NewStyle().Foreground(c(TextPrimary))

	t.Header = lipgloss.NewStyle().
		Background(c(SurfaceDim)).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Crimson))

	t.Badge = lipgloss.NewStyle().
		Foreground(c(TextSecondary))

	t.Divider = lipgloss.NewStyle().
		Foreground(c(Overlay))

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Overlay)).
		Padding(0, 1)

	t.SidebarFocused = t.Sidebar.
		BorderForeground(c(Crimson))

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(TextSecondary)).
		MarginBottom(1)

	t.HistoryItem = lipgloss.NewStyle().
		Foreground(c(TextPrimary)).
		PaddingLeft(1)

	t.HistorySel = lipgloss.NewStyle().
		Foreground(c(Crimson)).
		Background(c(SelectionBg)).
		Bold(true).
		PaddingLeft(1)

	t.HistoryActive = lipgloss.NewStyle().
		Foreground(c(Gold)).
		PaddingLeft(1)

	t.HistoryMeta = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		PaddingLeft(1)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Sky))

	t.BotLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Crimson))

	t.UserMessage = lipgloss.NewStyle().
		Foreground(c(TextPrimary)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(c(Sky)).
		PaddingLeft(1)

	t.BotMessage = lipgloss.NewStyle()

	t.Source = lipgloss.NewStyle().
		Foreground(c(Gold)).
		Italic(true)

	t.Offline = lipgloss.NewStyle().
		Foreground(c(Amber)).
		Bold(true)

	// Welcome
	t.WelcomeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Crimson)).
		MarginBottom(1)

	t.WelcomeText = lipgloss.NewStyle().
		Foreground(c(TextSecondary))

	t.Suggestion = lipgloss.NewStyle().
		Foreground(c(Sky)).
		PaddingLeft(2)

	// Input and status
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(c(Overlay))

	t.Thinking = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Background(c(SurfaceDim)).
		Padding(0, 1)

	t.StatusError = lipgloss.NewStyle().
		Foreground(c(Rose)).
		Background(c(SurfaceDim)).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(c(Crimson)).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(c(TextMuted))
}
