// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package knowledge provides the offline KLU knowledge base.
//
// A Base is an ordered list of categories, each with keywords, canned
// markdown responses and a display label, plus a general fallback used when
// nothing matches. Matching is a plain substring test of each keyword
// against the lowercased query, in declared category order; the first
// matching category wins.
//
// The built-in base is compiled into the binary. A TOML file with the same
// layout can replace it, and a Watcher swaps in edits to that file while the
// program runs.
//
// # Usage
//
//	base := knowledge.Builtin()
//	cat, ok := base.Match("What is the fee for B.Tech?")
//	text := cat.Pick(rng)
package knowledge
