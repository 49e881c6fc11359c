// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kluniversity/klu-agent/internal/backend"
	"github.com/kluniversity/klu-agent/internal/knowledge"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// MinMessageLength and MaxMessageLength bound the chat message in runes.
	MinMessageLength = 1
	MaxMessageLength = 2000

	// MaxRequestBodySize caps the request body.
	MaxRequestBodySize = 64 * 1024

	// ToolKeywordMatch is reported in tools_used for every answer.
	ToolKeywordMatch = "keyword_match"
)

// ErrNoKnowledgeFile is returned by Reload when the server runs on the
// built-in knowledge base.
var ErrNoKnowledgeFile = errors.New("no knowledge base file configured")

// Options configures a Server.
type Options struct {
	Addr string

	// RateLimit is requests per second per IP; RateBurst the bucket size.
	RateLimit float64
	RateBurst int

	CORS CORSConfig

	// KnowledgeFile is reloaded by POST /api/reload. Empty means the
	// built-in base, which cannot be reloaded.
	KnowledgeFile string

	// Seed makes answer selection reproducible when non-zero.
	Seed uint64

	// TrustProxy applies middleware.RealIP, so logging and the rate
	// limiter see the forwarded client address.
	TrustProxy bool
}

// ============================================================================
// SERVER
// ============================================================================

// Server answers the chat API from a knowledge base.
type Server struct {
	opts    Options
	kb      *knowledge.Holder
	limiter *RateLimiter
	router  chi.Router
	server  *http.Server

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewServer creates a server over kb.
func NewServer(kb *knowledge.Holder, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	if len(opts.CORS.AllowedOrigins) == 0 {
		opts.CORS = DefaultCORSConfig()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	s := &Server{
		opts:    opts,
		kb:      kb,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateBurst),
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	s.setupRoutes()
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(s.opts.CORS))
	r.Use(RateLimitMiddleware(s.limiter))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", s.handleChat)
		api.Get("/categories", s.handleCategories)
		api.Get("/faqs", s.handleFAQs)
		api.Post("/reload", s.handleReload)
	})

	s.router = r
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// chatRequest mirrors backend.ChatRequest and accepts the optional
// conversation id some clients send.
type chatRequest struct {
	backend.ChatRequest
	ConversationID string `json:"conversation_id,omitempty"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	n := utf8.RuneCountInString(req.Message)
	if n < MinMessageLength || n > MaxMessageLength {
		writeError(w, http.StatusUnprocessableEntity, "message must be between 1 and 2000 characters")
		return
	}

	cat, matched := s.kb.Base().Match(req.Message)
	s.rngMu.Lock()
	answer := cat.Pick(s.rng)
	s.rngMu.Unlock()

	conv := req.ConversationID
	if conv == "" {
		conv = "-"
	}
	log.Printf("CHAT_ANSWERED | conversation=%s category=%s matched=%t", conv, cat.Name, matched)

	sources := []string{}
	if matched {
		sources = append(sources, cat.Label())
	}

	elapsed := time.Since(start).Seconds()
	writeJSON(w, http.StatusOK, backend.ChatResponse{
		Answer:       answer,
		Sources:      sources,
		ToolsUsed:    []string{ToolKeywordMatch},
		ResponseTime: math.Round(elapsed*100) / 100,
	})
}

// ============================================================================
// KNOWLEDGE HANDLERS
// ============================================================================

// CategoryInfo describes one knowledge base category.
type CategoryInfo struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Keywords  []string `json:"keywords"`
	Responses int      `json:"responses"`
}

// handleCategories handles GET /api/categories.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.kb.Base().Categories()
	out := make([]CategoryInfo, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryInfo{
			Name:      c.Name,
			Label:     c.Label(),
			Keywords:  c.Keywords,
			Responses: len(c.Responses),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// FAQ is one canned answer.
type FAQ struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Answer   string `json:"answer"`
}

// handleFAQs handles GET /api/faqs?category=<name>.
func (s *Server) handleFAQs(w http.ResponseWriter, r *http.Request) {
	filter := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category")))

	out := []FAQ{}
	id := 0
	for _, c := range s.kb.Base().Categories() {
		for _, resp := range c.Responses {
			id++
			if filter != "" && filter != c.Name {
				continue
			}
			out = append(out, FAQ{ID: id, Category: c.Name, Answer: resp})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Reload reads the knowledge base file again and swaps it in.
func (s *Server) Reload() (*knowledge.Base, error) {
	if s.opts.KnowledgeFile == "" {
		return nil, ErrNoKnowledgeFile
	}
	base, err := knowledge.LoadFile(s.opts.KnowledgeFile)
	if err != nil {
		return nil, err
	}
	s.kb.Swap(base)
	log.Printf("KNOWLEDGE_RELOADED | path=%s categories=%d", s.opts.KnowledgeFile, base.Len())
	return base, nil
}

// handleReload handles POST /api/reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	base, err := s.Reload()
	switch {
	case errors.Is(err, ErrNoKnowledgeFile):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "success",
			"categories": base.Len(),
		})
	}
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse is the health check body.
type HealthResponse struct {
	Status        string `json:"status"`
	KnowledgeBase string `json:"knowledge_base"`
	Categories    int    `json:"categories"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	source := "builtin"
	if s.opts.KnowledgeFile != "" {
		source = s.opts.KnowledgeFile
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "running",
		KnowledgeBase: source,
		Categories:    s.kb.Base().Len(),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s categories=%d", s.opts.Addr, s.kb.Base().Len())
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Printf("RESPONSE_WRITE_FAILED | err=%v", err)
	}
}

// writeError writes {"detail": message}, the error shape chat clients expect.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}
