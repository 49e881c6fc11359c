// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"
)

const (
	// MaxTitleRunes is the number of characters kept from the first user
	// message when deriving a title.
	MaxTitleRunes = 50

	// TitleEllipsis is appended to truncated titles.
	TitleEllipsis = "…"

	// DefaultTitle is used when a conversation has no user message.
	DefaultTitle = "New Chat"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a saved chat.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	c.Messages = CloneMessages(c.Messages)
	return c
}

// MessageCount returns the number of messages in the conversation.
func (c Conversation) MessageCount() int {
	return len(c.Messages)
}

// Matches reports whether the title or any message contains query,
// ignoring case. An empty query matches everything.
func (c Conversation) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Title), query) {
		return true
	}
	for _, msg := range c.Messages {
		if strings.Contains(strings.ToLower(msg.Content), query) {
			return true
		}
	}
	return false
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// DeriveTitle computes a conversation title from its first user message.
// Titles longer than MaxTitleRunes are cut and suffixed with TitleEllipsis.
func DeriveTitle(msgs []Message) string {
	for _, msg := range msgs {
		if !msg.IsUser() {
			continue
		}
		content := msg.Content
		if content == "" {
			break
		}
		// Rune-based truncation keeps multi-byte characters intact
		runes := []rune(content)
		if len(runes) > MaxTitleRunes {
			return string(runes[:MaxTitleRunes]) + TitleEllipsis
		}
		return content
	}
	return DefaultTitle
}
