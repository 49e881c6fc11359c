// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - view and edit config.toml.
//
// Command: config [show|get|set|keys|path]
//
// Examples:
//   klu-agent config show
//   klu-agent config get api.base_url
//   klu-agent config set api.origin https://chat.kluniversity.in
//   klu-agent config set storage.backend sqlite
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kluniversity/klu-agent/internal/config"
)

// HandleConfig runs a config subcommand.
func HandleConfig(args Args) error {
	path := args.ConfigFile
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	return runConfig(os.Stdout, path, args)
}

func runConfig(w io.Writer, path string, args Args) error {
	p := NewArgParser(args.Raw)

	switch p.Subcommand() {
	case "", "show":
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		if args.JSON {
			return writeJSON(w, cfg)
		}
		var buf strings.Builder
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		fmt.Fprintf(w, "# %s\n", path)
		fmt.Fprint(w, highlight(buf.String(), "toml"))
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return errors.New("usage: klu-agent config get <key>")
		}
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if list, ok := v.([]string); ok {
			v = strings.Join(list, ",")
		}
		fmt.Fprintln(w, v)
		return nil

	case "set":
		key, value := p.Positional(1), JoinPositionalArgs(p, 2)
		if key == "" || p.PositionalCount() < 3 {
			return errors.New("usage: klu-agent config set <key> <value>")
		}
		// Edit the file contents only, so environment overrides are not
		// written back.
		cfg := config.Default()
		if _, err := os.Stat(path); err == nil {
			if err := config.LoadTOML(cfg, path); err != nil {
				return err
			}
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.SaveTOML(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s = %s\n", RenderConditional(SuccessStyle, "Set"), key, value)
		return nil

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(w, k)
		}
		return nil

	case "path":
		fmt.Fprintln(w, path)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (show, get, set, keys, path)", p.Subcommand())
	}
}
