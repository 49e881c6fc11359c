// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/util"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore owns the saved conversations and the active
// conversation id. Conversations are kept in creation order; the active id
// always refers to an existing conversation or is empty.
type ConversationStore struct {
	mu            sync.Mutex
	kv            KV
	conversations []model.Conversation
	currentID     string
	now           func() time.Time
}

// StoreOption configures a ConversationStore.
type StoreOption func(*ConversationStore)

// WithClock overrides the time source used for ids and createdAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ConversationStore) {
		s.now = now
	}
}

// NewConversationStore creates a store over kv and rehydrates the saved
// conversations once. Missing or undecodable data yields an empty history.
func NewConversationStore(kv KV, opts ...StoreOption) *ConversationStore {
	s := &ConversationStore{
		kv:            kv,
		conversations: []model.Conversation{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rehydrate()
	return s
}

func (s *ConversationStore) rehydrate() {
	raw, ok, err := s.kv.Get(KeyConversations)
	if err != nil {
		log.Printf("STORE_READ_FAILED | key=%s err=%v", KeyConversations, err)
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	var convs []model.Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		log.Printf("STORE_CORRUPT | key=%s err=%v", KeyConversations, err)
		return
	}
	for i := range convs {
		if convs[i].Messages == nil {
			convs[i].Messages = []model.Message{}
		}
	}
	s.conversations = convs
}

// persist serializes the full sequence. Callers hold s.mu.
func (s *ConversationStore) persist() error {
	data, err := json.Marshal(s.conversations)
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	if err := s.kv.Set(KeyConversations, string(data)); err != nil {
		return fmt.Errorf("failed to save conversations: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// CreateOrUpdate saves msgs as the active conversation and returns its id.
//
// With no active conversation a new one is appended with a fresh id,
// a derived title and createdAt=now, and it becomes active. Otherwise the
// active conversation's messages are replaced and its title recomputed.
// An empty msgs is a no-op returning the current id.
func (s *ConversationStore) CreateOrUpdate(msgs []model.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(msgs) == 0 {
		return s.currentID, nil
	}

	if idx := s.indexOf(s.currentID); idx >= 0 {
		s.conversations[idx].Messages = model.CloneMessages(msgs)
		s.conversations[idx].Title = model.DeriveTitle(msgs)
		return s.currentID, s.persist()
	}

	now := s.now()
	conv := model.Conversation{
		ID:        s.newID(now),
		Title:     model.DeriveTitle(msgs),
		Messages:  model.CloneMessages(msgs),
		CreatedAt: now,
	}
	s.conversations = append(s.conversations, conv)
	s.currentID = conv.ID
	return conv.ID, s.persist()
}

// newID returns conv_<epoch millis>, bumped forward past any existing id.
func (s *ConversationStore) newID(now time.Time) string {
	millis := now.UnixMilli()
	for {
		id := "conv_" + strconv.FormatInt(millis, 10)
		if s.indexOf(id) < 0 {
			return id
		}
		millis++
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load returns a copy of the conversation with the given id.
func (s *ConversationStore) Load(id string) (model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Conversation{}, ErrConversationNotFound
	}
	return s.conversations[idx].Clone(), nil
}

// Exists reports whether id names a saved conversation.
func (s *ConversationStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns copies of all conversations, most recently created first.
// Storage order is not modified.
func (s *ConversationStore) List() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Conversation, 0, len(s.conversations))
	for i := len(s.conversations) - 1; i >= 0; i-- {
		out = append(out, s.conversations[i].Clone())
	}
	return out
}

// Search returns conversations whose title or messages contain query,
// ignoring case, most recent first.
func (s *ConversationStore) Search(query string) []model.Conversation {
	var results []model.Conversation
	for _, conv := range s.List() {
		if conv.Matches(query) {
			results = append(results, conv)
		}
	}
	return results
}

// Len returns the number of saved conversations.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes the conversation with the given id. Unknown ids are a
// silent no-op. Deleting the active conversation clears the active id.
func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	if s.currentID == id {
		s.currentID = ""
	}
	return s.persist()
}

// =============================================================================
// ACTIVE CONVERSATION
// =============================================================================

// CurrentID returns the active conversation id, or "" when none is active.
func (s *ConversationStore) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// SetCurrent makes id the active conversation.
func (s *ConversationStore) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return ErrConversationNotFound
	}
	s.currentID = id
	return nil
}

// ClearCurrent detaches the active conversation so the next save creates a
// new one.
func (s *ConversationStore) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = ""
}

// indexOf returns the storage index of id or -1. Callers hold s.mu.
func (s *ConversationStore) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatConversationList renders conversations as a table for the CLI.
// The marker column flags the active conversation.
func FormatConversationList(convs []model.Conversation, currentID string) string {
	if len(convs) == 0 {
		return "No saved conversations."
	}

	var sb strings.Builder
	sb.WriteString("  " + util.PadRight("ID", 20) + " " + util.PadRight("Created", 17) + " " + util.PadRight("Msgs", 5) + " Title\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for _, c := range convs {
		marker := "  "
		if c.ID == currentID {
			marker = "* "
		}
		sb.WriteString(marker +
			util.PadRight(c.ID, 20) + " " +
			util.PadRight(c.CreatedAt.Local().Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(util.IntToStr(c.MessageCount()), 5) + " " +
			util.TruncateWidth(util.OneLine(c.Title), 34) + "\n")
	}
	return sb.String()
}
