// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// The default format is the plain text transcript:
//
//	KLU Agent - Chat Export
//	==================================================
//	Exported: 1/15/2025, 9:00:00 AM
//
//	👤 You:
//	When do admissions open?
//
//	────────────────────────────────────────
//
// Markdown and JSON exporters are also available for `klu-agent export
// --format`. Files are named klu-agent-chat-<epoch millis><ext>.
package export
