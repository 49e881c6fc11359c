// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/kluniversity/klu-agent/internal/backend"
	"github.com/kluniversity/klu-agent/internal/knowledge"
	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/util"
)

const (
	// DefaultMinDelay is the shortest artificial pause before a local answer.
	DefaultMinDelay = 800 * time.Millisecond

	// DefaultMaxDelay is the longest artificial pause before a local answer.
	DefaultMaxDelay = 2000 * time.Millisecond

	offlineSuffix = " (offline)"
)

// =============================================================================
// TYPES
// =============================================================================

// Answer is the resolved reply to a question.
type Answer struct {
	Text   string
	Source string

	// Offline is true when the answer came from the local knowledge base.
	Offline bool
}

// Remote is the chat API. *backend.Client implements it.
type Remote interface {
	Chat(ctx context.Context, message string) (*backend.ChatResponse, error)
}

// RemoteResult is the outcome of the single remote attempt.
type RemoteResult struct {
	Reply *backend.ChatResponse
	Err   error
}

// OK reports whether the remote attempt produced a usable reply.
func (r RemoteResult) OK() bool {
	return r.Err == nil && r.Reply != nil
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Resolver.
type Option func(*Resolver)

// WithDelay sets the bounds of the local answer pause.
func WithDelay(lo, hi time.Duration) Option {
	return func(r *Resolver) {
		if lo < 0 {
			lo = 0
		}
		if hi < lo {
			hi = lo
		}
		r.minDelay, r.maxDelay = lo, hi
	}
}

// WithSleeper replaces the pause implementation.
func WithSleeper(s Sleeper) Option {
	return func(r *Resolver) {
		r.sleep = s
	}
}

// WithSeed makes response selection and delays reproducible.
func WithSeed(seed uint64) Option {
	return func(r *Resolver) {
		r.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver answers questions remotely with a local fallback.
type Resolver struct {
	remote   Remote
	kb       *knowledge.Holder
	minDelay time.Duration
	maxDelay time.Duration
	sleep    Sleeper

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a resolver. A nil remote always answers locally.
func New(remote Remote, kb *knowledge.Holder, opts ...Option) *Resolver {
	r := &Resolver{
		remote:   remote,
		kb:       kb,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		sleep:    ContextSleep,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve answers query. It never fails.
func (r *Resolver) Resolve(ctx context.Context, query string) Answer {
	result := r.askRemote(ctx, query)
	return WithFallback(result, func() Answer {
		return r.Local(ctx, query)
	})
}

// askRemote makes the single remote attempt.
func (r *Resolver) askRemote(ctx context.Context, query string) RemoteResult {
	if r.remote == nil {
		return RemoteResult{Err: offline.ErrRemoteDisabled}
	}
	if err := offline.CheckRemoteAllowed(); err != nil {
		return RemoteResult{Err: err}
	}
	reply, err := r.remote.Chat(ctx, query)
	return RemoteResult{Reply: reply, Err: err}
}

// WithFallback returns the remote answer when res succeeded and local()
// otherwise. Failures are logged.
func WithFallback(res RemoteResult, local func() Answer) Answer {
	if res.OK() {
		return Answer{
			Text:   res.Reply.Answer,
			Source: FormatRemoteSource(res.Reply.Sources, res.Reply.ResponseTime),
		}
	}
	if res.Err != nil && !errors.Is(res.Err, offline.ErrRemoteDisabled) {
		log.Printf("REMOTE_FALLBACK | reason=%v", res.Err)
	}
	return local()
}

// FormatRemoteSource renders "<sources> (<seconds>s)". Empty sources are
// reported as the knowledge base.
func FormatRemoteSource(sources []string, responseTime float64) string {
	var named []string
	for _, s := range sources {
		if strings.TrimSpace(s) != "" {
			named = append(named, s)
		}
	}
	label := knowledge.SourceName
	if len(named) > 0 {
		label = strings.Join(named, ", ")
	}
	return label + " (" + util.FormatSeconds(responseTime) + "s)"
}

// Local answers from the knowledge base after the artificial pause.
// A cancelled ctx cuts the pause short but still yields an answer.
func (r *Resolver) Local(ctx context.Context, query string) Answer {
	_ = r.sleep(ctx, r.nextDelay())

	base := r.kb.Base()
	cat, _ := base.Match(query)

	r.rngMu.Lock()
	text := cat.Pick(r.rng)
	r.rngMu.Unlock()

	return Answer{
		Text:    text,
		Source:  cat.Label() + offlineSuffix,
		Offline: true,
	}
}

// nextDelay draws a pause uniformly from [minDelay, maxDelay].
func (r *Resolver) nextDelay() time.Duration {
	span := int64(r.maxDelay - r.minDelay)
	if span <= 0 {
		return r.minDelay
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.minDelay + time.Duration(r.rng.Int64N(span+1))
}
