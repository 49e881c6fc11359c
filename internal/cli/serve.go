// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - development chat API backed by the local knowledge base.
//
// Command: serve
//
// Examples:
//   klu-agent serve
//   klu-agent serve --addr 0.0.0.0:8000 --knowledge ./kb.toml --watch
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kluniversity/klu-agent/internal/config"
	"github.com/kluniversity/klu-agent/internal/knowledge"
	"github.com/kluniversity/klu-agent/internal/server"
)

// shutdownTimeout bounds the graceful stop after SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// HandleServe runs the development API until interrupted.
func HandleServe(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	// Request logs are the point of the dev server
	log.SetOutput(os.Stderr)

	srv, watcher, err := buildServer(cfg, args)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Close()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(os.Stderr, "KLU Agent API listening on http://%s (Ctrl+C to stop)\n", srv.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// buildServer applies serve flags over cfg and builds the server. The
// returned watcher is non-nil when --watch (or knowledge.watch) is on.
func buildServer(cfg *config.Config, args Args) (*server.Server, *knowledge.Watcher, error) {
	p := NewArgParser(args.Raw, "watch")

	opts := server.Options{
		Addr:          p.FlagOrDefault("addr", cfg.Server.Addr),
		RateLimit:     cfg.Server.RateLimit,
		RateBurst:     cfg.Server.RateBurst,
		CORS:          server.DefaultCORSConfig(),
		KnowledgeFile: p.FlagOrDefault("knowledge", cfg.Knowledge.File),
		Seed:          cfg.Resolver.Seed,
		TrustProxy:    cfg.Server.TrustProxy,
	}
	opts.CORS.AllowedOrigins = cfg.Server.AllowedOrigins
	if v := p.Flag("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("--seed must be a non-negative integer, got %q", v)
		}
		opts.Seed = seed
	}

	kb, err := LoadKnowledge(opts.KnowledgeFile)
	if err != nil {
		return nil, nil, err
	}
	holder := knowledge.NewHolder(kb)
	srv := server.NewServer(holder, opts)

	watch := p.BoolFlag("watch") || cfg.Knowledge.Watch
	if !watch || opts.KnowledgeFile == "" {
		return srv, nil, nil
	}
	w, err := knowledge.NewWatcher(opts.KnowledgeFile, holder, knowledge.DefaultDebounce, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("watch knowledge base: %w", err)
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("watch knowledge base: %w", err)
	}
	return srv, w, nil
}
