// klu-agent - KL University information assistant for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kluniversity/klu-agent/internal/cli"
	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	closer, err := cli.SetupLogging(args, cmd == cli.CmdTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdExport:
		err = cli.HandleExport(args)
	case cli.CmdTheme:
		err = cli.HandleTheme(args)
	case cli.CmdServe:
		err = cli.HandleServe(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	default:
		err = cli.HandleHelp(args)
	}

	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the full-screen chat.
func runTUI(args cli.Args) error {
	if !cli.IsTTY() {
		return fmt.Errorf("the chat UI needs an interactive terminal; try `klu-agent ask <question>`")
	}

	app, err := cli.OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if offline.IsOfflineMode() {
		log.Printf("OFFLINE_MODE | remote API disabled")
	}

	exporter, err := export.ForFormat("")
	if err != nil {
		return err
	}

	m := chat.New(app.Session, chat.Options{
		ExportDir: app.Config.Export.Dir,
		Exporter:  exporter,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse wheel scrolling
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running klu-agent: %w", err)
	}
	return nil
}
