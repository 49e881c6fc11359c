// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kluniversity/klu-agent/internal/backend"
	"github.com/kluniversity/klu-agent/internal/knowledge"
	"github.com/kluniversity/klu-agent/internal/offline"
)

// stubRemote returns a canned reply or error and counts calls.
type stubRemote struct {
	mu    sync.Mutex
	reply *backend.ChatResponse
	err   error
	calls int
}

func (s *stubRemote) Chat(ctx context.Context, message string) (*backend.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

// recordingSleeper captures requested pauses without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func newTestResolver(remote Remote, sleeper *recordingSleeper) *Resolver {
	return New(remote, knowledge.NewHolder(knowledge.Builtin()),
		WithSleeper(sleeper.Sleep),
		WithSeed(42),
	)
}

// =============================================================================
// REMOTE PATH
// =============================================================================

func TestResolve_RemoteSuccess(t *testing.T) {
	remote := &stubRemote{reply: &backend.ChatResponse{
		Answer:       "Admissions open in January.",
		Sources:      []string{"Admissions FAQ", "Website"},
		ResponseTime: 1.2,
	}}
	sleeper := &recordingSleeper{}

	ans := newTestResolver(remote, sleeper).Resolve(context.Background(), "admissions?")

	assert.Equal(t, "Admissions open in January.", ans.Text)
	assert.Equal(t, "Admissions FAQ, Website (1.2s)", ans.Source)
	assert.False(t, ans.Offline)
	assert.Empty(t, sleeper.delays, "remote answers are not delayed")
}

func TestResolve_RemoteEmptySources(t *testing.T) {
	remote := &stubRemote{reply: &backend.ChatResponse{Answer: "Hi", ResponseTime: 0.5}}

	ans := newTestResolver(remote, &recordingSleeper{}).Resolve(context.Background(), "hi")
	assert.Equal(t, "KLU Knowledge Base (0.5s)", ans.Source)
}

func TestResolve_RemoteFailureFallsBack(t *testing.T) {
	remote := &stubRemote{err: errors.New("connection refused")}
	sleeper := &recordingSleeper{}

	ans := newTestResolver(remote, sleeper).Resolve(context.Background(), "What is the fee for B.Tech?")

	assert.Equal(t, 1, remote.calls, "exactly one remote attempt")
	assert.True(t, ans.Offline)
	assert.Equal(t, "KLU Knowledge Base — Fees (offline)", ans.Source)
	assert.Contains(t, ans.Text, "Fee Structure")
	require.Len(t, sleeper.delays, 1)
}

func TestResolve_HTTPServerErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ans := newTestResolver(backend.NewClient(server.URL), &recordingSleeper{}).
		Resolve(context.Background(), "Tell me about hostel rooms")

	assert.Equal(t, "KLU Knowledge Base — Campus (offline)", ans.Source)
}

func TestResolve_MalformedBodyFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	ans := newTestResolver(backend.NewClient(server.URL), &recordingSleeper{}).
		Resolve(context.Background(), "xyz")

	assert.Equal(t, "KLU Knowledge Base (offline)", ans.Source)
	assert.Contains(t, ans.Text, "KLU Agent")
}

func TestResolve_OfflineModeSkipsRemote(t *testing.T) {
	original := offline.IsOfflineMode()
	defer offline.SetOfflineMode(original)
	offline.SetOfflineMode(true)

	remote := &stubRemote{reply: &backend.ChatResponse{Answer: "remote"}}
	ans := newTestResolver(remote, &recordingSleeper{}).Resolve(context.Background(), "placements")

	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, "KLU Knowledge Base — Placements (offline)", ans.Source)
}

func TestResolve_NilRemote(t *testing.T) {
	ans := newTestResolver(nil, &recordingSleeper{}).Resolve(context.Background(), "samyak")
	assert.Equal(t, "KLU Knowledge Base — Events (offline)", ans.Source)
}

// =============================================================================
// LOCAL PATH
// =============================================================================

func TestLocal_AdmissionRequirements(t *testing.T) {
	admissions, ok := knowledge.Builtin().Lookup("admissions")
	require.True(t, ok)
	require.Len(t, admissions.Responses, 1)

	ans := newTestResolver(nil, &recordingSleeper{}).Resolve(context.Background(), "What are the admission requirements?")

	assert.Equal(t, admissions.Responses[0], ans.Text)
	assert.Equal(t, "KLU Knowledge Base — Admissions (offline)", ans.Source)
	assert.True(t, ans.Offline)
}

func TestLocal_EmptyQueryGetsGeneralAnswer(t *testing.T) {
	general := knowledge.Builtin().General()
	require.NotEmpty(t, general.Responses)

	_, matched := knowledge.Builtin().Match("")
	assert.False(t, matched)

	ans := newTestResolver(nil, &recordingSleeper{}).Local(context.Background(), "")

	assert.Contains(t, general.Responses, ans.Text)
	assert.True(t, strings.HasSuffix(ans.Source, "(offline)"), ans.Source)
	assert.Equal(t, "KLU Knowledge Base (offline)", ans.Source)
}

func TestLocal_DelayWithinBounds(t *testing.T) {
	sleeper := &recordingSleeper{}
	r := newTestResolver(nil, sleeper)

	for i := 0; i < 200; i++ {
		r.Local(context.Background(), "fees")
	}
	for _, d := range sleeper.delays {
		assert.GreaterOrEqual(t, d, DefaultMinDelay)
		assert.LessOrEqual(t, d, DefaultMaxDelay)
	}
}

func TestLocal_CustomDelay(t *testing.T) {
	sleeper := &recordingSleeper{}
	r := New(nil, knowledge.NewHolder(knowledge.Builtin()),
		WithSleeper(sleeper.Sleep),
		WithDelay(10*time.Millisecond, 10*time.Millisecond),
	)
	r.Local(context.Background(), "fees")
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, sleeper.delays)
}

func TestLocal_CancelledContextStillAnswers(t *testing.T) {
	r := New(nil, knowledge.NewHolder(knowledge.Builtin()), WithDelay(time.Hour, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan Answer, 1)
	go func() { done <- r.Local(ctx, "fees") }()

	select {
	case ans := <-done:
		assert.True(t, ans.Offline)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled pause did not return")
	}
}

func TestLocal_SeedIsReproducible(t *testing.T) {
	base := knowledge.New([]knowledge.Category{{
		Name:      "fees",
		Keywords:  []string{"fee"},
		Responses: []string{"a", "b", "c", "d", "e"},
	}}, knowledge.Category{Responses: []string{"general"}})

	pick := func() []string {
		r := New(nil, knowledge.NewHolder(base), WithSleeper((&recordingSleeper{}).Sleep), WithSeed(7))
		var out []string
		for i := 0; i < 10; i++ {
			out = append(out, r.Local(context.Background(), "fee").Text)
		}
		return out
	}
	assert.Equal(t, pick(), pick())
}

func TestLocal_UsesSwappedBase(t *testing.T) {
	holder := knowledge.NewHolder(knowledge.Builtin())
	r := New(nil, holder, WithSleeper((&recordingSleeper{}).Sleep))

	holder.Swap(knowledge.New([]knowledge.Category{{
		Name: "transport", Keywords: []string{"bus"}, Responses: []string{"Buses leave hourly."},
	}}, knowledge.Category{Responses: []string{"general"}}))

	ans := r.Local(context.Background(), "bus")
	assert.Equal(t, "Buses leave hourly.", ans.Text)
	assert.Equal(t, "KLU Knowledge Base — Transport (offline)", ans.Source)
}

// =============================================================================
// COMBINATOR
// =============================================================================

func TestWithFallback(t *testing.T) {
	local := func() Answer { return Answer{Text: "local", Offline: true} }

	ans := WithFallback(RemoteResult{Err: errors.New("down")}, local)
	assert.Equal(t, "local", ans.Text)

	ans = WithFallback(RemoteResult{}, local)
	assert.Equal(t, "local", ans.Text, "nil reply without error falls back")

	ans = WithFallback(RemoteResult{Reply: &backend.ChatResponse{Answer: "remote", ResponseTime: 2}}, local)
	assert.Equal(t, "remote", ans.Text)
	assert.Equal(t, "KLU Knowledge Base (2s)", ans.Source)
}

func TestFormatRemoteSource(t *testing.T) {
	assert.Equal(t, "A, B (1.5s)", FormatRemoteSource([]string{"A", "B"}, 1.5))
	assert.Equal(t, "KLU Knowledge Base (0.3s)", FormatRemoteSource(nil, 0.3))
	assert.Equal(t, "KLU Knowledge Base (1s)", FormatRemoteSource([]string{"  "}, 1))
}
