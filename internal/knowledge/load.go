// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed builtin.toml
var builtinTOML []byte

// ErrEmptyBase is returned when a knowledge file defines no responses.
var ErrEmptyBase = errors.New("knowledge base has no responses")

// fileFormat mirrors the TOML layout of a knowledge file.
type fileFormat struct {
	Category []struct {
		Name      string   `toml:"name"`
		Title     string   `toml:"title"`
		Keywords  []string `toml:"keywords"`
		Responses []string `toml:"responses"`
	} `toml:"category"`
	General struct {
		Responses []string `toml:"responses"`
	} `toml:"general"`
}

var (
	builtinOnce sync.Once
	builtinBase *Base
)

// Builtin returns the knowledge base compiled into the binary.
func Builtin() *Base {
	builtinOnce.Do(func() {
		b, err := Parse(builtinTOML)
		if err != nil {
			panic(fmt.Sprintf("knowledge: invalid built-in base: %v", err))
		}
		builtinBase = b
	})
	return builtinBase
}

// Parse decodes a knowledge base from TOML.
func Parse(data []byte) (*Base, error) {
	var f fileFormat
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	seen := make(map[string]bool, len(f.Category))
	cats := make([]Category, 0, len(f.Category))
	for i, c := range f.Category {
		// Names are case-insensitive, as in Lookup.
		key := lowerCaser.String(strings.TrimSpace(c.Name))
		if key == "" {
			return nil, fmt.Errorf("category %d: missing name", i+1)
		}
		if key == GeneralCategory {
			return nil, fmt.Errorf("category %d: %q is reserved, use the [general] table", i+1, c.Name)
		}
		if seen[key] {
			return nil, fmt.Errorf("category %q defined twice", c.Name)
		}
		seen[key] = true
		if len(c.Responses) == 0 {
			return nil, fmt.Errorf("category %q: no responses", c.Name)
		}
		cats = append(cats, Category{
			Name:      c.Name,
			Title:     c.Title,
			Keywords:  c.Keywords,
			Responses: c.Responses,
		})
	}

	if len(f.General.Responses) == 0 {
		return nil, fmt.Errorf("%w: [general] needs at least one response", ErrEmptyBase)
	}

	return New(cats, Category{Responses: f.General.Responses}), nil
}

// LoadFile reads a knowledge base from a TOML file.
func LoadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
