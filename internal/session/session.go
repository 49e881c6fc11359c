// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muesli/termenv"

	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/resolver"
	"github.com/kluniversity/klu-agent/internal/storage"
)

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned while another question is being answered.
	ErrBusy = errors.New("still answering the previous question")
)

// ThemeSystem follows the terminal background.
const ThemeSystem = "system"

// Answerer resolves a question. *resolver.Resolver implements it.
type Answerer interface {
	Resolve(ctx context.Context, query string) resolver.Answer
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for exports.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithBackgroundDetector overrides terminal background detection used by
// the "system" theme.
func WithBackgroundDetector(isDark func() bool) Option {
	return func(s *Session) { s.isDark = isDark }
}

// WithDefaultTheme sets the theme used when none is saved.
func WithDefaultTheme(theme string) Option {
	return func(s *Session) { s.defaultTheme = theme }
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the explicit application state of a chat client.
type Session struct {
	mu         sync.Mutex
	messages   []model.Message
	generation uint64
	busy       atomic.Bool

	store    *storage.ConversationStore
	answerer Answerer
	prefs    *storage.Preferences

	now          func() time.Time
	isDark       func() bool
	defaultTheme string
}

// New creates a session. The message list starts empty with no active
// conversation.
func New(store *storage.ConversationStore, answerer Answerer, prefs *storage.Preferences, opts ...Option) *Session {
	s := &Session{
		messages:     []model.Message{},
		store:        store,
		answerer:     answerer,
		prefs:        prefs,
		now:          time.Now,
		isDark:       termenv.HasDarkBackground,
		defaultTheme: storage.ThemeDark,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the conversation store.
func (s *Session) Store() *storage.ConversationStore {
	return s.store
}

// Messages returns a copy of the visible messages.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMessages(s.messages)
}

// CurrentID returns the active conversation id, or "".
func (s *Session) CurrentID() string {
	return s.store.CurrentID()
}

// Busy reports whether a question is being answered.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// History returns the saved conversations, newest first.
func (s *Session) History() []model.Conversation {
	return s.store.List()
}

// =============================================================================
// SENDING
// =============================================================================

// Turn is a question that has been added to the chat and awaits an answer.
type Turn struct {
	s          *Session
	question   string
	generation uint64
	done       atomic.Bool
}

// Question returns the submitted text.
func (t *Turn) Question() string {
	return t.question
}

// Reply is the outcome of a turn.
type Reply struct {
	resolver.Answer

	// ConversationID is the conversation the answer was saved to.
	ConversationID string

	// Discarded is true when the chat changed while the answer was pending.
	Discarded bool

	// SaveErr is set when the answer could not be persisted.
	SaveErr error
}

// Send submits text and waits for the answer.
func (s *Session) Send(ctx context.Context, text string) (Reply, error) {
	turn, err := s.Begin(text)
	if err != nil {
		return Reply{}, err
	}
	return turn.Finish(ctx), nil
}

// Begin appends the user message and marks the session busy. The caller
// must call Finish exactly once.
func (s *Session) Begin(text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, model.NewUserMessage(text))
	return &Turn{s: s, question: text, generation: s.generation}, nil
}

// Finish resolves the question, appends the answer and saves the
// conversation. A stale turn is discarded without touching any state.
func (t *Turn) Finish(ctx context.Context) Reply {
	s := t.s
	if !t.done.CompareAndSwap(false, true) {
		return Reply{Discarded: true}
	}
	defer s.busy.Store(false)

	ans := s.answerer.Resolve(ctx, t.question)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.generation != s.generation {
		log.Printf("REPLY_DISCARDED | reason=conversation_changed")
		return Reply{Answer: ans, Discarded: true}
	}

	s.messages = append(s.messages, model.NewBotMessage(ans.Text))
	id, err := s.store.CreateOrUpdate(s.messages)
	if err != nil {
		log.Printf("STORE_WRITE_FAILED | err=%v", err)
	}
	return Reply{Answer: ans, ConversationID: id, SaveErr: err}
}

// =============================================================================
// CONVERSATION CONTROL
// =============================================================================

// reset empties the visible chat and invalidates pending turns.
// Callers hold s.mu.
func (s *Session) reset() {
	s.messages = []model.Message{}
	s.generation++
}

// NewChat starts an empty chat with no active conversation.
func (s *Session) NewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.store.ClearCurrent()
}

// Load makes the conversation with the given id active and shows its
// messages. An unknown id leaves the session unchanged.
func (s *Session) Load(id string) error {
	conv, err := s.store.Load(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetCurrent(id); err != nil {
		return err
	}
	s.reset()
	s.messages = conv.Messages
	return nil
}

// Delete removes a saved conversation. Deleting the active conversation
// starts a new chat.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := id != "" && id == s.store.CurrentID()
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if active {
		s.reset()
	}
	return nil
}

// Clear empties the chat and deletes the active conversation from history.
// It is a no-op when the chat is already empty.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return nil
	}
	id := s.store.CurrentID()
	s.reset()
	if id == "" {
		return nil
	}
	return s.store.Delete(id)
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the visible chat to dir with exporter (text when nil).
func (s *Session) Export(dir string, exporter export.Exporter) (string, error) {
	msgs := s.Messages()
	if len(msgs) == 0 {
		return "", export.ErrNothingToExport
	}
	path, err := export.ToFile(msgs, exporter, dir, s.now())
	if err != nil {
		return "", err
	}
	log.Printf("CHAT_EXPORTED | path=%s messages=%d", path, len(msgs))
	return path, nil
}

// =============================================================================
// THEME
// =============================================================================

// Theme returns the saved theme, or the default when none is saved.
func (s *Session) Theme() string {
	if theme, ok := s.prefs.Theme(); ok {
		return theme
	}
	return s.defaultTheme
}

// SetTheme saves theme. "system" is resolved to dark or light from the
// terminal background before saving. It returns the saved theme.
func (s *Session) SetTheme(theme string) (string, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme == ThemeSystem {
		theme = storage.ThemeLight
		if s.isDark() {
			theme = storage.ThemeDark
		}
	}
	if err := s.prefs.SetTheme(theme); err != nil {
		return "", fmt.Errorf("set theme: %w", err)
	}
	return theme, nil
}

// ToggleTheme switches between dark and light and returns the new theme.
func (s *Session) ToggleTheme() (string, error) {
	next := storage.ThemeDark
	if s.Theme() == storage.ThemeDark {
		next = storage.ThemeLight
	}
	return s.SetTheme(next)
}
