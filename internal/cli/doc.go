// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// klu-agent.
//
// # Key Types
//
//   - Command: the top-level commands
//   - Args: global flags plus the raw arguments of the command
//   - ArgParser: flag and positional parsing shared by all commands
//   - App: configuration, storage, knowledge base, resolver and session
//     wired together for one run
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(args)
//	// ...
//	}
//
// # Commands
//
//   - chat: line-based chat with /commands
//   - ask: one question, one answer
//   - history: list, show, search and delete saved conversations
//   - export: write a transcript as text, markdown or JSON
//   - theme: show or set the saved theme
//   - serve: development chat API over the local knowledge base
//   - config: show, get and set configuration
//   - version, help
//
// Colored output honors NO_COLOR and FORCE_COLOR and is disabled when
// stdout is not a terminal.
package cli
