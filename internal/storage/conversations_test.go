// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kluniversity/klu-agent/internal/model"
)

// fakeClock advances one millisecond per call.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestStore(t *testing.T, kv KV) (*ConversationStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}
	return NewConversationStore(kv, WithClock(clock.Now)), clock
}

func exchange(q, a string) []model.Message {
	return []model.Message{model.NewUserMessage(q), model.NewBotMessage(a)}
}

// =============================================================================
// CREATE / UPDATE
// =============================================================================

func TestCreateOrUpdate_CreatesWhenNoActive(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	id, err := store.CreateOrUpdate(exchange("What courses are offered?", "B.Tech, M.Tech"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "conv_"))
	assert.Equal(t, id, store.CurrentID())
	require.Equal(t, 1, store.Len())

	conv, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "What courses are offered?", conv.Title)
	assert.Len(t, conv.Messages, 2)
	assert.False(t, conv.CreatedAt.IsZero())
}

func TestCreateOrUpdate_IDIsEpochMillis(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1700000000000)}
	store := NewConversationStore(NewMemoryKV(), WithClock(clock.Now))

	id, err := store.CreateOrUpdate(exchange("hi", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "conv_1700000000001", id)
}

func TestCreateOrUpdate_UpdatesActive(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	msgs := exchange("fees?", "See the fee structure")
	id, err := store.CreateOrUpdate(msgs)
	require.NoError(t, err)

	msgs = append(msgs, exchange("hostel?", "Separate hostels")...)
	id2, err := store.CreateOrUpdate(msgs)
	require.NoError(t, err)

	assert.Equal(t, id, id2)
	assert.Equal(t, 1, store.Len())

	conv, err := store.Load(id)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 4)
	assert.Equal(t, "fees?", conv.Title)
}

func TestCreateOrUpdate_EmptyIsNoop(t *testing.T) {
	kv := NewMemoryKV()
	store, _ := newTestStore(t, kv)

	id, err := store.CreateOrUpdate(nil)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, 0, store.Len())

	_, ok, _ := kv.Get(KeyConversations)
	assert.False(t, ok, "no-op must not write")
}

func TestCreateOrUpdate_TitleTruncated(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	id, err := store.CreateOrUpdate(exchange(strings.Repeat("q", 60), "a"))
	require.NoError(t, err)

	conv, _ := store.Load(id)
	assert.Equal(t, 51, len([]rune(conv.Title)))
}

func TestCreateOrUpdate_NoUserMessageTitle(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	id, err := store.CreateOrUpdate([]model.Message{model.NewBotMessage("Welcome!")})
	require.NoError(t, err)

	conv, _ := store.Load(id)
	assert.Equal(t, "New Chat", conv.Title)
}

func TestCreateOrUpdate_IDsUnique(t *testing.T) {
	frozen := time.UnixMilli(1700000000000)
	store := NewConversationStore(NewMemoryKV(), WithClock(func() time.Time { return frozen }))

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		store.ClearCurrent()
		id, err := store.CreateOrUpdate(exchange("q", "a"))
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestCreateOrUpdate_StoresCopy(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	msgs := exchange("original", "a")
	id, err := store.CreateOrUpdate(msgs)
	require.NoError(t, err)

	msgs[0] = model.NewUserMessage("mutated")
	conv, _ := store.Load(id)
	assert.Equal(t, "original", conv.Messages[0].Content)
}

// =============================================================================
// LIST / LOAD
// =============================================================================

func TestList_NewestFirst(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	var ids []string
	for _, q := range []string{"first", "second", "third"} {
		store.ClearCurrent()
		id, err := store.CreateOrUpdate(exchange(q, "a"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, ids[0], list[2].ID)

	// Storage order stays chronological
	var stored []model.Conversation
	raw, _, _ := store.kv.Get(KeyConversations)
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, ids[0], stored[0].ID)
}

func TestLoad_NotFound(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())

	_, err := store.Load("conv_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestLoad_ReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())
	id, _ := store.CreateOrUpdate(exchange("q", "a"))

	conv, _ := store.Load(id)
	conv.Messages[0] = model.NewUserMessage("changed")

	again, _ := store.Load(id)
	assert.Equal(t, "q", again.Messages[0].Content)
}

func TestSearch(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())
	store.CreateOrUpdate(exchange("placements", "Top recruiters: TCS, Infosys"))
	store.ClearCurrent()
	store.CreateOrUpdate(exchange("hostel", "AC and non-AC rooms"))

	results := store.Search("infosys")
	require.Len(t, results, 1)
	assert.Equal(t, "placements", results[0].Title)

	assert.Len(t, store.Search(""), 2)
}

// =============================================================================
// DELETE / ACTIVE
// =============================================================================

func TestDelete_ActiveClearsCurrent(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())
	id, _ := store.CreateOrUpdate(exchange("q", "a"))

	require.NoError(t, store.Delete(id))
	assert.Empty(t, store.CurrentID())
	assert.Equal(t, 0, store.Len())
}

func TestDelete_OtherKeepsCurrent(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())
	first, _ := store.CreateOrUpdate(exchange("one", "a"))
	store.ClearCurrent()
	second, _ := store.CreateOrUpdate(exchange("two", "a"))

	require.NoError(t, store.Delete(first))
	assert.Equal(t, second, store.CurrentID())
	assert.Equal(t, 1, store.Len())
}

func TestDelete_UnknownIsNoop(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())
	store.CreateOrUpdate(exchange("q", "a"))

	require.NoError(t, store.Delete("conv_nope"))
	assert.Equal(t, 1, store.Len())
}

func TestSetCurrent(t *testing.T) {
	store, _ := newTestStore(t, NewMemoryKV())
	id, _ := store.CreateOrUpdate(exchange("q", "a"))
	store.ClearCurrent()
	assert.Empty(t, store.CurrentID())

	require.NoError(t, store.SetCurrent(id))
	assert.Equal(t, id, store.CurrentID())

	err := store.SetCurrent("conv_missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, id, store.CurrentID())
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestRehydrate_RoundTrip(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	store, _ := newTestStore(t, kv)
	id, err := store.CreateOrUpdate(exchange("Tell me about SAMYAK", "Annual techno-cultural fest"))
	require.NoError(t, err)

	reopened := NewConversationStore(kv)
	require.Equal(t, 1, reopened.Len())
	assert.Empty(t, reopened.CurrentID(), "active id is not persisted")

	conv, err := reopened.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "Tell me about SAMYAK", conv.Title)
	assert.Equal(t, model.RoleBot, conv.Messages[1].Role)
}

func TestRehydrate_CorruptDataIsEmpty(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyConversations, "{not json"))

	store := NewConversationStore(kv)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.List())

	// The store remains usable and overwrites the bad data
	_, err := store.CreateOrUpdate(exchange("q", "a"))
	require.NoError(t, err)
	raw, _, _ := kv.Get(KeyConversations)
	assert.True(t, json.Valid([]byte(raw)))
}

func TestRehydrate_AcceptsBrowserTimestamps(t *testing.T) {
	kv := NewMemoryKV()
	raw := `[{"id":"conv_1700000000000","title":"hi","messages":[{"role":"user","content":"hi"}],"createdAt":"2023-11-14T22:13:20.000Z"}]`
	require.NoError(t, kv.Set(KeyConversations, raw))

	store := NewConversationStore(kv)
	conv, err := store.Load("conv_1700000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), conv.CreatedAt.UnixMilli())
}

func TestEveryMutationPersists(t *testing.T) {
	kv := NewMemoryKV()
	store, _ := newTestStore(t, kv)

	count := func() int {
		raw, _, _ := kv.Get(KeyConversations)
		var convs []model.Conversation
		require.NoError(t, json.Unmarshal([]byte(raw), &convs))
		return len(convs)
	}

	id, _ := store.CreateOrUpdate(exchange("q", "a"))
	assert.Equal(t, 1, count())
	require.NoError(t, store.Delete(id))
	assert.Equal(t, 0, count())
}

func TestSQLiteKV_BacksStore(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "klu.db"))
	require.NoError(t, err)
	defer kv.Close()

	store, _ := newTestStore(t, kv)
	id, err := store.CreateOrUpdate(exchange("courses", "B.Tech"))
	require.NoError(t, err)

	reopened := NewConversationStore(kv)
	_, err = reopened.Load(id)
	require.NoError(t, err)
}

func TestFormatConversationList(t *testing.T) {
	assert.Equal(t, "No saved conversations.", FormatConversationList(nil, ""))

	convs := []model.Conversation{{ID: "conv_1", Title: "Fees", Messages: exchange("fees", "a"), CreatedAt: time.Now()}}
	out := FormatConversationList(convs, "conv_1")
	assert.Contains(t, out, "* conv_1")
	assert.Contains(t, out, "Fees")
}
