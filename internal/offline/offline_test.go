// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"errors"
	"sync"
	"testing"
)

// =============================================================================
// MODE MANAGEMENT TESTS
// =============================================================================

func TestSetOfflineMode(t *testing.T) {
	original := IsOfflineMode()
	defer SetOfflineMode(original)

	SetOfflineMode(true)
	if !IsOfflineMode() {
		t.Error("IsOfflineMode should return true after SetOfflineMode(true)")
	}
	if !errors.Is(CheckRemoteAllowed(), ErrRemoteDisabled) {
		t.Error("CheckRemoteAllowed should fail in offline mode")
	}
	if StatusBadge() != "[OFFLINE]" {
		t.Errorf("StatusBadge = %q", StatusBadge())
	}

	SetOfflineMode(false)
	if IsOfflineMode() {
		t.Error("IsOfflineMode should return false after SetOfflineMode(false)")
	}
	if err := CheckRemoteAllowed(); err != nil {
		t.Errorf("CheckRemoteAllowed = %v, want nil", err)
	}
}

func TestIsOfflineMode_ThreadSafe(t *testing.T) {
	original := IsOfflineMode()
	defer SetOfflineMode(original)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			SetOfflineMode(v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = IsOfflineMode()
		}()
	}
	wg.Wait()
}

// =============================================================================
// URL TESTS
// =============================================================================

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"localhost:8000", true},
		{"127.0.0.1", true},
		{"127.10.0.1", true},
		{"::1", true},
		{"[::1]:8080", true},
		{"kluniversity.in", false},
		{"10.0.0.5", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsLocalhost(tc.host); got != tc.want {
			t.Errorf("IsLocalhost(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://chat.kluniversity.in"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateURL("file:///etc/passwd"); !errors.Is(err, ErrInvalidURLScheme) {
		t.Errorf("file URL: got %v", err)
	}
	if err := ValidateURL("http://"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("hostless URL: got %v", err)
	}
}
