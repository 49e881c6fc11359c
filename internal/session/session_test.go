// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kluniversity/klu-agent/internal/export"
	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/resolver"
	"github.com/kluniversity/klu-agent/internal/storage"
)

// echoAnswerer answers immediately with a fixed prefix.
type echoAnswerer struct{}

func (echoAnswerer) Resolve(ctx context.Context, q string) resolver.Answer {
	return resolver.Answer{Text: "re: " + q, Source: "test", Offline: true}
}

// gatedAnswerer blocks until release is closed.
type gatedAnswerer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGated() *gatedAnswerer {
	return &gatedAnswerer{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedAnswerer) Resolve(ctx context.Context, q string) resolver.Answer {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return resolver.Answer{Text: "late answer"}
}

func newTestSession(t *testing.T, a Answerer, opts ...Option) (*Session, *storage.ConversationStore) {
	t.Helper()
	kv := storage.NewMemoryKV()
	store := storage.NewConversationStore(kv)
	return New(store, a, storage.NewPreferences(kv), opts...), store
}

func TestSend_SavesConversation(t *testing.T) {
	sess, store := newTestSession(t, echoAnswerer{})

	reply, err := sess.Send(context.Background(), "  When do admissions open?  ")
	require.NoError(t, err)
	assert.False(t, reply.Discarded)
	assert.Equal(t, "re: When do admissions open?", reply.Text)
	assert.NotEmpty(t, reply.ConversationID)

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "When do admissions open?", msgs[0].Content)
	assert.Equal(t, model.RoleBot, msgs[1].Role)

	conv, err := store.Load(reply.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "When do admissions open?", conv.Title)
	assert.Len(t, conv.Messages, 2)
}

func TestSend_SecondMessageUpdatesSameConversation(t *testing.T) {
	sess, store := newTestSession(t, echoAnswerer{})

	r1, err := sess.Send(context.Background(), "first")
	require.NoError(t, err)
	r2, err := sess.Send(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, r1.ConversationID, r2.ConversationID)
	assert.Equal(t, 1, store.Len())
	conv, _ := store.Load(r1.ConversationID)
	assert.Len(t, conv.Messages, 4)
}

func TestSend_EmptyMessage(t *testing.T) {
	sess, store := newTestSession(t, echoAnswerer{})

	_, err := sess.Send(context.Background(), " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, sess.Messages())
	assert.Equal(t, 0, store.Len())
}

func TestSend_BusyRefusesSecondQuestion(t *testing.T) {
	gate := newGated()
	sess, _ := newTestSession(t, gate)

	done := make(chan Reply, 1)
	go func() {
		r, _ := sess.Send(context.Background(), "first")
		done <- r
	}()
	<-gate.started

	assert.True(t, sess.Busy())
	_, err := sess.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(gate.release)
	<-done
	assert.False(t, sess.Busy())
	assert.Len(t, sess.Messages(), 2, "the refused question is dropped")
}

func TestSend_StaleReplyIsDiscarded(t *testing.T) {
	changes := map[string]func(*Session){
		"new chat": func(s *Session) { s.NewChat() },
		"clear":    func(s *Session) { require.NoError(t, s.Clear()) },
	}

	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			gate := newGated()
			sess, store := newTestSession(t, gate)

			done := make(chan Reply, 1)
			go func() {
				r, _ := sess.Send(context.Background(), "question")
				done <- r
			}()
			<-gate.started

			change(sess)
			close(gate.release)

			reply := <-done
			assert.True(t, reply.Discarded)
			assert.Empty(t, sess.Messages())
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestBeginFinish(t *testing.T) {
	sess, _ := newTestSession(t, echoAnswerer{})

	turn, err := sess.Begin("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", turn.Question())
	assert.Len(t, sess.Messages(), 1, "question is visible before the answer")

	reply := turn.Finish(context.Background())
	assert.False(t, reply.Discarded)
	assert.Len(t, sess.Messages(), 2)

	again := turn.Finish(context.Background())
	assert.True(t, again.Discarded, "a turn finishes once")
	assert.Len(t, sess.Messages(), 2)
}

func TestNewChat(t *testing.T) {
	sess, store := newTestSession(t, echoAnswerer{})
	_, err := sess.Send(context.Background(), "first chat")
	require.NoError(t, err)

	sess.NewChat()
	assert.Empty(t, sess.Messages())
	assert.Empty(t, sess.CurrentID())

	_, err = sess.Send(context.Background(), "second chat")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestLoad(t *testing.T) {
	sess, _ := newTestSession(t, echoAnswerer{})
	r, err := sess.Send(context.Background(), "remember me")
	require.NoError(t, err)
	sess.NewChat()

	require.NoError(t, sess.Load(r.ConversationID))
	assert.Equal(t, r.ConversationID, sess.CurrentID())
	assert.Len(t, sess.Messages(), 2)

	err = sess.Load("conv_404")
	assert.ErrorIs(t, err, storage.ErrConversationNotFound)
	assert.Equal(t, r.ConversationID, sess.CurrentID(), "unknown id leaves state unchanged")
	assert.Len(t, sess.Messages(), 2)
}

func TestDelete(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	kv := storage.NewMemoryKV()
	store := storage.NewConversationStore(kv, storage.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	sess := New(store, echoAnswerer{}, storage.NewPreferences(kv))

	r1, _ := sess.Send(context.Background(), "one")
	sess.NewChat()
	r2, _ := sess.Send(context.Background(), "two")

	require.NoError(t, sess.Delete(r1.ConversationID))
	assert.Len(t, sess.Messages(), 2, "deleting another conversation keeps the chat")
	assert.Equal(t, r2.ConversationID, sess.CurrentID())

	require.NoError(t, sess.Delete(r2.ConversationID))
	assert.Empty(t, sess.Messages())
	assert.Empty(t, sess.CurrentID())
	assert.Equal(t, 0, store.Len())

	assert.NoError(t, sess.Delete("conv_404"))
}

func TestClear(t *testing.T) {
	sess, store := newTestSession(t, echoAnswerer{})

	require.NoError(t, sess.Clear(), "clearing an empty chat is a no-op")

	_, err := sess.Send(context.Background(), "to be cleared")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, sess.Clear())
	assert.Empty(t, sess.Messages())
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, sess.CurrentID())
}

func TestExport(t *testing.T) {
	at := time.UnixMilli(1736931907000)
	sess, _ := newTestSession(t, echoAnswerer{}, WithClock(func() time.Time { return at }))
	dir := t.TempDir()

	_, err := sess.Export(dir, nil)
	assert.ErrorIs(t, err, export.ErrNothingToExport)

	_, err = sess.Send(context.Background(), "export me")
	require.NoError(t, err)

	path, err := sess.Export(dir, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "klu-agent-chat-1736931907000.txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "👤 You:\nexport me")
	assert.Contains(t, string(data), "🤖 KLU Agent:\nre: export me")
}

func TestTheme(t *testing.T) {
	sess, _ := newTestSession(t, echoAnswerer{}, WithBackgroundDetector(func() bool { return false }))

	assert.Equal(t, storage.ThemeDark, sess.Theme(), "dark by default")

	theme, err := sess.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeLight, theme)
	assert.Equal(t, storage.ThemeLight, sess.Theme())

	theme, err = sess.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeDark, theme)

	theme, err = sess.SetTheme("System")
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeLight, theme, "light terminal background")

	_, err = sess.SetTheme("purple")
	assert.ErrorIs(t, err, storage.ErrInvalidTheme)
	assert.Equal(t, storage.ThemeLight, sess.Theme())
}
