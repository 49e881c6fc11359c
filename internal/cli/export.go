// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - write a conversation transcript to a file.
//
// Command: export [id]
//
// Examples:
//   klu-agent export
//   klu-agent export 1736931907000 --format markdown
//   klu-agent export --format json --dir ~/Downloads
//   klu-agent export --stdout
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/model"
)

// HandleExport exports a saved conversation.
func HandleExport(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return runExport(app, args, time.Now())
}

// runExport exports the conversation named by the first positional, or
// the newest one. The active conversation is not kept between runs, so
// the newest is what the chat UI most recently saved.
func runExport(app *App, args Args, now time.Time) error {
	p := NewArgParser(args.Raw, "stdout")

	exporter, err := export.ForFormat(p.Flag("format", "f"))
	if err != nil {
		return err
	}

	conv, err := pickConversation(app, p.Positional(0))
	if err != nil {
		return err
	}

	if p.BoolFlag("stdout") {
		data, err := exporter.Export(conv.Messages, now)
		if err != nil {
			return err
		}
		_, err = app.Out.Write(data)
		return err
	}

	dir := p.FlagOrDefault("dir", app.Config.Export.Dir)
	path, err := export.ToFile(conv.Messages, exporter, dir, now)
	if err != nil {
		return err
	}
	app.printf("%s %s (%d messages)\n", RenderConditional(SuccessStyle, "Exported"), path, conv.MessageCount())
	return nil
}

func pickConversation(app *App, id string) (model.Conversation, error) {
	if id != "" {
		conv, err := app.Store.Load(id)
		if err != nil {
			return model.Conversation{}, fmt.Errorf("conversation %s: %w", id, err)
		}
		return conv, nil
	}
	if cur := app.Store.CurrentID(); cur != "" {
		return app.Store.Load(cur)
	}
	convs := app.Store.List()
	if len(convs) == 0 {
		return model.Conversation{}, errors.New("no saved conversations to export")
	}
	return convs[0], nil
}
