// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client-side state for the KLU Agent.
//
// All state lives in a small string key-value store (KV) so the same data
// layout works regardless of the backend:
//
//   - klu_conversations: JSON array of every saved conversation, in creation order
//   - klu_theme: "dark" or "light"
//
// # Key Types
//
//   - KV: backend interface (FileKV, SQLiteKV, MemoryKV)
//   - ConversationStore: ordered conversation collection plus the active id
//   - Preferences: the persisted theme preference
//
// # Usage
//
//	kv, err := storage.OpenKV("file", dataDir)
//	store := storage.NewConversationStore(kv)
//	id, err := store.CreateOrUpdate(messages)
//	convs := store.List() // newest first
//
// Every mutation rewrites the full conversation array synchronously.
// Data that cannot be decoded at startup is treated as an empty history.
package storage
