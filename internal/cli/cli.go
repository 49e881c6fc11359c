// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdHistory
	CmdExport
	CmdTheme
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdHistory:
		return "history"
	case CmdExport:
		return "export"
	case CmdTheme:
		return "theme"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds the parsed command line.
type Args struct {
	// Global flags
	Verbose    bool
	Offline    bool
	JSON       bool
	ConfigFile string

	// Subcommand is the first argument after the command, if any.
	Subcommand string

	// Raw is everything after the command name, for the command's own
	// ArgParser.
	Raw []string

	// Unknown is set when the command name was not recognized.
	Unknown string
}

const usageText = `klu-agent - KL University information assistant

Ask about admissions, courses, placements, campus life, schedules, events,
hostels and fees. Answers come from the university chat API, or from the
built-in knowledge base when the API is unreachable.

Usage:
  klu-agent                          Start the chat UI (default)
  klu-agent tui                      Start the chat UI
  klu-agent chat                     Line-based chat in the terminal
  klu-agent ask <question>           Ask a single question
  klu-agent history [subcommand]     Saved conversations
  klu-agent export [id]              Export a conversation transcript
  klu-agent theme [dark|light|system]
                                     Show or set the color theme
  klu-agent serve                    Run the development chat API
  klu-agent config [subcommand]      Configuration
  klu-agent version                  Version information
  klu-agent help                     This help

History:
  klu-agent history list             List conversations, newest first
  klu-agent history show <id>        Print a conversation
  klu-agent history search <text>    Find conversations by title or content
  klu-agent history delete <id>      Delete a conversation
    --yes                            Skip the confirmation prompt

Export:
  klu-agent export                   Export the active conversation
  klu-agent export <id>              Export a saved conversation
    --format text|markdown|json      Transcript format (default: text)
    --dir DIR                        Output directory (default: [export] dir)

Serve:
  klu-agent serve
    --addr HOST:PORT                 Listen address (default: 127.0.0.1:8000)
    --knowledge FILE                 Knowledge base TOML (default: built-in)
    --watch                          Reload the knowledge file when it changes

Config:
  klu-agent config show              Print the effective configuration
  klu-agent config get <key>         Print one setting (e.g. ui.theme)
  klu-agent config set <key> <value> Change a setting and save config.toml
  klu-agent config keys              List settable keys
  klu-agent config path              Print the config file location

Chat commands (inside "klu-agent chat"):
  /new  /history  /load <id>  /delete [id]  /clear  /export [format]
  /theme [dark|light|system]  /help  /quit

Global flags:
  -v, --verbose                      Log diagnostics to stderr
  --offline                          Never contact the chat API
  --config FILE                      Use FILE instead of ~/.klu-agent/config.toml
  --json                             Machine-readable output where supported

Environment:
  KLU_HOME                           Config directory (default: ~/.klu-agent)
  KLU_API_URL, KLU_ORIGIN            Chat API location
  KLU_OFFLINE                        Same as --offline
  NO_COLOR                           Disable colored output
`

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv without the program name.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		parsed.Subcommand = strings.ToLower(remaining[0])
	}

	switch cmd {
	case "tui", "ui":
		return CmdTUI, parsed
	case "chat", "repl":
		return CmdChat, parsed
	case "ask", "a":
		return CmdAsk, parsed
	case "history", "hist", "h":
		return CmdHistory, parsed
	case "export":
		return CmdExport, parsed
	case "theme":
		return CmdTheme, parsed
	case "serve", "server":
		return CmdServe, parsed
	case "config", "cfg":
		return CmdConfig, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Unknown = cmd
		return CmdHelp, parsed
	}
}

// parseGlobalFlags pulls global flags out of args wherever they appear.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--offline", "--no-network":
			parsed.Offline = true
		case "--json":
			parsed.JSON = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsed.ConfigFile = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				parsed.ConfigFile = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}
	return remaining, parsed
}

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// HandleHelp prints usage, and fails for unrecognized commands.
func HandleHelp(args Args) error {
	if args.Unknown != "" {
		PrintUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args.Unknown)
	}
	PrintUsage(os.Stdout)
	return nil
}

// VersionData is the --json form of `klu-agent version`.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints build information.
func HandleVersion(args Args) error {
	return printVersion(os.Stdout, args.JSON)
}

func printVersion(w io.Writer, asJSON bool) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if asJSON {
		return writeJSON(w, data)
	}
	fmt.Fprintf(w, "klu-agent %s\n", data.Version)
	fmt.Fprintf(w, "  %s%s\n", RenderLabel("Commit:"), data.GitCommit)
	fmt.Fprintf(w, "  %s%s\n", RenderLabel("Built:"), data.BuildDate)
	fmt.Fprintf(w, "  %s%s (%s)\n", RenderLabel("Go:"), data.GoVersion, data.Platform)
	return nil
}
