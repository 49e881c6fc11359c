// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrRemoteDisabled is returned when the chat API is consulted in offline mode.
	ErrRemoteDisabled = errors.New("remote chat API disabled in offline mode")

	// ErrInvalidURLScheme is returned for API URLs that are not http or https.
	ErrInvalidURLScheme = errors.New("only http and https API URLs are allowed")

	// ErrInvalidURL is returned for API URLs that cannot be parsed or lack a host.
	ErrInvalidURL = errors.New("invalid API URL")
)

// =============================================================================
// MODE MANAGEMENT
// =============================================================================

var (
	offlineMode      bool
	offlineModeMutex sync.RWMutex
)

// SetOfflineMode enables or disables offline mode globally.
func SetOfflineMode(enabled bool) {
	offlineModeMutex.Lock()
	defer offlineModeMutex.Unlock()
	offlineMode = enabled
}

// IsOfflineMode returns true if offline mode is currently enabled.
func IsOfflineMode() bool {
	offlineModeMutex.RLock()
	defer offlineModeMutex.RUnlock()
	return offlineMode
}

// CheckRemoteAllowed returns ErrRemoteDisabled in offline mode.
func CheckRemoteAllowed() error {
	if IsOfflineMode() {
		return ErrRemoteDisabled
	}
	return nil
}

// =============================================================================
// URL HELPERS
// =============================================================================

// IsLocalhost reports whether host refers to the local machine.
// Accepts "localhost", any 127.0.0.0/8 address and IPv6 loopback, with or
// without a port or brackets.
func IsLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrInvalidURLScheme
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// =============================================================================
// STATUS DISPLAY
// =============================================================================

// StatusBadge returns "[OFFLINE]" when offline, empty string otherwise.
func StatusBadge() string {
	if IsOfflineMode() {
		return "[OFFLINE]"
	}
	return ""
}
