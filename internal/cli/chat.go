// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-based chat with history navigation.
//
// Command: chat
//
// Examples:
//   klu-agent chat
//   klu-agent --offline chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/kluniversity/klu-agent/internal/config"
	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI reads prompt lines with arrow-key history that persists across
// runs in the config directory.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line reader and loads saved input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = "."
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory reads saved input history, if any.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput prompts for one line. Non-blank input is added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history owner-readable only.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// chatREPL runs chat commands against one App. It is separate from the
// line reader so it can be driven without a terminal.
type chatREPL struct {
	app      *App
	out      io.Writer
	markdown *answerRenderer
}

func newChatREPL(app *App) *chatREPL {
	return &chatREPL{
		app:      app,
		out:      app.Out,
		markdown: newAnswerRenderer(app.Session.Theme(), app.Config.UI.WordWrap),
	}
}

// HandleChat runs the interactive chat loop.
func HandleChat(args Args) error {
	if !IsTTY() {
		return errors.New("chat needs an interactive terminal; use `klu-agent ask` for scripts")
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	repl := newChatREPL(app)
	repl.printWelcome()

	input := NewChatCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput(RenderConditional(PromptStyle, "klu> "))
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D both end the session
			fmt.Fprintln(repl.out)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		cont, err := repl.handleLine(ctx, line)
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderConditional(ErrorStyle, "[Error]"), err)
		}
		if !cont {
			return nil
		}
	}
}

// handleLine processes one input line. It returns false when the user
// asked to quit.
func (r *chatREPL) handleLine(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return true, nil
	}
	if strings.HasPrefix(input, "/") {
		return r.handleSlashCommand(input)
	}
	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return false, nil
	}
	return true, r.send(ctx, input)
}

// send asks one question and prints the answer.
func (r *chatREPL) send(ctx context.Context, text string) error {
	if IsStdoutTTY() {
		fmt.Fprint(r.out, RenderConditional(DimStyle, "Thinking...")+"\r")
	}
	reply, err := r.app.Session.Send(ctx, text)
	if IsStdoutTTY() {
		fmt.Fprint(r.out, "\033[K")
	}
	if err != nil {
		return err
	}

	printAnswer(r.out, r.markdown, reply.Answer)
	fmt.Fprintln(r.out)
	if reply.SaveErr != nil {
		return fmt.Errorf("answer not saved: %w", reply.SaveErr)
	}
	return nil
}

// handleSlashCommand runs a /command. It returns false for /quit.
func (r *chatREPL) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	sess := r.app.Session

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()

	case "/quit", "/q", "/exit":
		return false, nil

	case "/new", "/n":
		sess.NewChat()
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "[New conversation]"))

	case "/history", "/hist":
		convs := sess.History()
		if len(args) > 0 {
			convs = r.app.Store.Search(strings.Join(args, " "))
		}
		fmt.Fprint(r.out, storage.FormatConversationList(convs, sess.CurrentID()))
		fmt.Fprintln(r.out)

	case "/load", "/l":
		if len(args) == 0 {
			return true, errors.New("usage: /load <id>")
		}
		if err := sess.Load(args[0]); err != nil {
			return true, err
		}
		printTranscript(r.out, r.markdown, sess.Messages())
		fmt.Fprintln(r.out)

	case "/delete", "/del":
		id := sess.CurrentID()
		if len(args) > 0 {
			id = args[0]
		}
		if id == "" {
			return true, errors.New("no active conversation; usage: /delete <id>")
		}
		if err := sess.Delete(id); err != nil {
			return true, err
		}
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "[Conversation deleted]"))

	case "/clear", "/c":
		if err := sess.Clear(); err != nil {
			return true, err
		}
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "[Chat cleared]"))

	case "/export", "/e":
		format := ""
		if len(args) > 0 {
			format = args[0]
		}
		exporter, err := export.ForFormat(format)
		if err != nil {
			return true, err
		}
		path, err := sess.Export(r.app.Config.Export.Dir, exporter)
		if err != nil {
			if errors.Is(err, export.ErrNothingToExport) {
				return true, errors.New("nothing to export yet")
			}
			return true, err
		}
		fmt.Fprintf(r.out, "%s %s\n", RenderConditional(SuccessStyle, "[Exported]"), path)

	case "/theme", "/t":
		if len(args) == 0 {
			fmt.Fprintf(r.out, "Theme: %s\n", sess.Theme())
			return true, nil
		}
		theme, err := sess.SetTheme(args[0])
		if err != nil {
			return true, err
		}
		r.markdown = newAnswerRenderer(theme, r.app.Config.UI.WordWrap)
		fmt.Fprintf(r.out, "Theme set to %s\n", theme)

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

func (r *chatREPL) printWelcome() {
	fmt.Fprintln(r.out, RenderConditional(TitleStyle, "KLU Agent"))
	fmt.Fprintln(r.out, "Ask about admissions, courses, placements, campus, schedules, events, hostels or fees.")
	if badge := offline.StatusBadge(); badge != "" {
		fmt.Fprintln(r.out, RenderConditional(WarningStyle, badge+" answering from the built-in knowledge base"))
	}
	fmt.Fprintln(r.out, RenderConditional(DimStyle, "Type /help for commands, /quit to leave."))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printHelp() {
	help := []struct{ cmd, desc string }{
		{"/new", "Start a new conversation"},
		{"/history [text]", "List saved conversations, optionally filtered"},
		{"/load <id>", "Open a saved conversation"},
		{"/delete [id]", "Delete a conversation (default: the active one)"},
		{"/clear", "Clear the chat and delete the active conversation"},
		{"/export [format]", "Export the chat as text, markdown or json"},
		{"/theme [name]", "Show or set the theme (dark, light, system)"},
		{"/quit", "Leave"},
	}
	for _, h := range help {
		fmt.Fprintf(r.out, "  %s %s\n", RenderLabel(h.cmd), h.desc)
	}
	fmt.Fprintln(r.out)
}
