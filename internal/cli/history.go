// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - saved conversation management.
//
// Command: history [list|show|search|delete]
// Aliases: hist, h
//
// Examples:
//   klu-agent history
//   klu-agent history show 1736931907000
//   klu-agent history search hostel
//   klu-agent history delete 1736931907000 --yes
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/storage"
)

// ConversationSummary is one row of `history list --json`.
type ConversationSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	Messages  int    `json:"messages"`
	Active    bool   `json:"active"`
}

// HandleHistory manages saved conversations.
func HandleHistory(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return runHistory(app, args, os.Stdin, CanPrompt())
}

func runHistory(app *App, args Args, stdin io.Reader, interactive bool) error {
	p := NewArgParser(args.Raw, "yes", "y", "json")
	asJSON := args.JSON || p.BoolFlag("json")

	switch p.Subcommand() {
	case "", "list", "ls":
		return listConversations(app, app.Store.List(), asJSON)

	case "search", "find":
		query := JoinPositionalArgs(p, 1)
		if strings.TrimSpace(query) == "" {
			return errors.New("usage: klu-agent history search <text>")
		}
		return listConversations(app, app.Store.Search(query), asJSON)

	case "show", "view":
		id := p.Positional(1)
		if id == "" {
			return errors.New("usage: klu-agent history show <id>")
		}
		conv, err := app.Store.Load(id)
		if err != nil {
			return fmt.Errorf("conversation %s: %w", id, err)
		}
		if asJSON {
			return writeJSON(app.Out, conv)
		}
		showConversation(app, conv)
		return nil

	case "delete", "rm":
		id := p.Positional(1)
		if id == "" {
			return errors.New("usage: klu-agent history delete <id> [--yes]")
		}
		conv, err := app.Store.Load(id)
		if errors.Is(err, storage.ErrConversationNotFound) {
			app.printf("%s\n", RenderConditional(DimStyle, fmt.Sprintf("No conversation %s, nothing deleted.", id)))
			return nil
		}
		if err != nil {
			return fmt.Errorf("conversation %s: %w", id, err)
		}
		if !p.BoolFlag("yes", "y") {
			if !interactive {
				return errors.New("refusing to delete without --yes when stdin is not a terminal")
			}
			if !confirm(app.Out, stdin, fmt.Sprintf("Delete %q?", conv.Title)) {
				app.printf("Cancelled.\n")
				return nil
			}
		}
		if err := app.Store.Delete(id); err != nil {
			return err
		}
		app.printf("%s %s\n", RenderConditional(SuccessStyle, "Deleted"), id)
		return nil

	default:
		return fmt.Errorf("unknown history subcommand %q (list, show, search, delete)", p.Subcommand())
	}
}

func listConversations(app *App, convs []model.Conversation, asJSON bool) error {
	current := app.Store.CurrentID()
	if asJSON {
		rows := make([]ConversationSummary, 0, len(convs))
		for _, c := range convs {
			rows = append(rows, ConversationSummary{
				ID:        c.ID,
				Title:     c.Title,
				CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
				Messages:  c.MessageCount(),
				Active:    c.ID == current,
			})
		}
		return writeJSON(app.Out, rows)
	}
	app.printf("%s", storage.FormatConversationList(convs, current))
	if len(convs) > 0 {
		app.printf("\n%d conversation(s)\n", len(convs))
	} else {
		app.printf("\n")
	}
	return nil
}

func showConversation(app *App, conv model.Conversation) {
	app.printf("%s\n", RenderConditional(TitleStyle, conv.Title))
	app.printf("%s\n", RenderConditional(DimStyle, fmt.Sprintf("%s  ·  %s  ·  %d messages",
		conv.ID, conv.CreatedAt.Local().Format("2006-01-02 15:04"), conv.MessageCount())))
	app.printf("%s\n\n", RenderSeparator(50))
	printTranscript(app.Out, newAnswerRenderer(app.Session.Theme(), app.Config.UI.WordWrap), conv.Messages)
}

// confirm asks a yes/no question on out and reads the answer from in.
func confirm(out io.Writer, in io.Reader, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	ok, err := ParseBoolString(line)
	return err == nil && ok
}
