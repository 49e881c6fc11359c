// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolver turns a user question into an answer.
//
// Resolution tries the remote chat API once and falls back to the local
// knowledge base on any failure. It never returns an error: the worst case
// is the general help text from the knowledge base.
//
// Local answers are delayed by a random pause (0.8s to 2s by default) so
// they read like a reply rather than an instant lookup. The pause, the
// random source and the remote client are all injectable for tests.
package resolver
