// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strconv"

// FormatSeconds renders a number of seconds in its shortest decimal form,
// e.g. 1.5 -> "1.5", 2 -> "2".
func FormatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IntToStr converts an int to string.
func IntToStr(i int) string {
	return strconv.Itoa(i)
}
