// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// Theme values persisted under KeyTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ErrInvalidTheme is returned when persisting anything but dark or light.
var ErrInvalidTheme = errors.New("theme must be dark or light")

// Preferences stores user interface preferences.
type Preferences struct {
	kv KV
}

// NewPreferences wraps kv.
func NewPreferences(kv KV) *Preferences {
	return &Preferences{kv: kv}
}

// Theme returns the saved theme and whether one was saved.
// Unreadable or unknown values report ok=false.
func (p *Preferences) Theme() (string, bool) {
	v, ok, err := p.kv.Get(KeyTheme)
	if err != nil {
		log.Printf("PREF_READ_FAILED | key=%s err=%v", KeyTheme, err)
		return "", false
	}
	v = strings.TrimSpace(v)
	if !ok || (v != ThemeDark && v != ThemeLight) {
		return "", false
	}
	return v, true
}

// SetTheme persists theme.
func (p *Preferences) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return p.kv.Set(KeyTheme, theme)
}
