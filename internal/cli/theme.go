// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/kluniversity/klu-agent/internal/session"
	"github.com/kluniversity/klu-agent/internal/storage"
)

// HandleTheme shows or sets the saved theme.
//
//	klu-agent theme            prints the current theme
//	klu-agent theme light      saves light
//	klu-agent theme system     saves dark or light to match the terminal
func HandleTheme(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return runTheme(app, args)
}

func runTheme(app *App, args Args) error {
	p := NewArgParser(args.Raw)
	name := strings.ToLower(p.Subcommand())

	if name == "" {
		current := app.Session.Theme()
		if _, saved := app.Prefs.Theme(); !saved {
			app.printf("%s (default)\n", current)
			return nil
		}
		app.printf("%s\n", current)
		return nil
	}

	switch name {
	case storage.ThemeDark, storage.ThemeLight, session.ThemeSystem:
	default:
		return storage.ErrInvalidTheme
	}

	theme, err := app.Session.SetTheme(name)
	if err != nil {
		return err
	}
	app.printf("%s %s\n", RenderConditional(SuccessStyle, "Theme set to"), theme)
	return nil
}
