// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the store, the
// session and the interfaces of the KLU Agent.
//
// # Key Types
//
//   - Conversation: a saved chat with id, derived title and messages
//   - Message: a single turn with a role and content
//   - Role: message role enumeration (user, bot)
//
// # Usage
//
//	msgs := []model.Message{
//	    model.NewUserMessage("When do admissions open?"),
//	    model.NewBotMessage("Admissions open in January."),
//	}
//	title := model.DeriveTitle(msgs)
package model
