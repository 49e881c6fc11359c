// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of one chat: the visible messages, the
// saved history and the theme preference.
//
// # Key Types
//
//   - Session: application state shared by the TUI, the REPL and ask
//   - Turn: a submitted question awaiting its answer
//   - Reply: the outcome of a turn
//
// # Usage
//
//	sess := session.New(store, res, prefs)
//	reply, err := sess.Send(ctx, "When do admissions open?")
//	if errors.Is(err, session.ErrBusy) {
//	    // a previous question is still being answered
//	}
//
// The TUI splits Send in two so the question is shown before the answer
// arrives:
//
//	turn, err := sess.Begin(text)   // on the UI goroutine
//	reply := turn.Finish(ctx)       // inside a tea.Cmd
//
// Starting a new chat, loading, deleting or clearing while a turn is pending
// makes that turn stale; its answer is discarded and nothing is saved.
package session
