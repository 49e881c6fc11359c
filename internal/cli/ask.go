// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one question, one answer.
//
// Command: ask [question]
//
// Examples:
//   klu-agent ask "What is the fee for B.Tech?"
//   klu-agent ask --save when do admissions open
//   klu-agent --json ask placements
//   echo "hostel rooms" | klu-agent ask -
//
// Flags:
//   --save     Keep the exchange as a saved conversation
//   --json     Print {question, answer, source, offline}
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/kluniversity/klu-agent/internal/resolver"
)

// AskResult is the --json form of `klu-agent ask`.
type AskResult struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Source         string `json:"source"`
	Offline        bool   `json:"offline"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// HandleAsk answers one question.
func HandleAsk(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runAsk(ctx, app, args, os.Stdin)
}

func runAsk(ctx context.Context, app *App, args Args, stdin io.Reader) error {
	p := NewArgParser(args.Raw, "save", "json")
	question := strings.TrimSpace(JoinPositionalArgs(p, 0))
	if question == "-" {
		data, err := io.ReadAll(bufio.NewReader(stdin))
		if err != nil {
			return fmt.Errorf("read question: %w", err)
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return errors.New("usage: klu-agent ask <question>")
	}

	result := AskResult{Question: question}
	if p.BoolFlag("save") {
		reply, err := app.Session.Send(ctx, question)
		if err != nil {
			return err
		}
		if reply.SaveErr != nil {
			return fmt.Errorf("save conversation: %w", reply.SaveErr)
		}
		result.ConversationID = reply.ConversationID
		result.setAnswer(reply.Answer)
	} else {
		result.setAnswer(app.Resolver.Resolve(ctx, question))
	}

	if args.JSON || p.BoolFlag("json") {
		return writeJSON(app.Out, result)
	}

	r := newAnswerRenderer(app.Session.Theme(), app.Config.UI.WordWrap)
	printAnswer(app.Out, r, resolver.Answer{Text: result.Answer, Source: result.Source})
	if result.ConversationID != "" {
		app.printf("%s\n", RenderConditional(DimStyle, "Saved as "+result.ConversationID))
	}
	return nil
}

func (r *AskResult) setAnswer(ans resolver.Answer) {
	r.Answer = ans.Text
	r.Source = ans.Source
	r.Offline = ans.Offline
}
