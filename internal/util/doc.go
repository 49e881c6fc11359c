// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the KLU Agent.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight: display-width aware helpers for terminal tables
//   - OneLine: collapses line breaks for single-line previews
//
// Conversion:
//   - FormatSeconds: shortest decimal form of a duration in seconds
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	display := util.TruncateWidth(title, 30)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
