// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/kluniversity/klu-agent/internal/backend"
	"github.com/kluniversity/klu-agent/internal/config"
	"github.com/kluniversity/klu-agent/internal/knowledge"
	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/resolver"
	"github.com/kluniversity/klu-agent/internal/session"
	"github.com/kluniversity/klu-agent/internal/storage"
)

// =============================================================================
// CONFIGURATION AND LOGGING
// =============================================================================

// LoadConfig loads the configuration named by --config (or the default
// path), applies --offline and installs it as the global config.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigFile != "" {
		cfg, err = config.LoadFromPath(args.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if args.Offline {
		cfg.API.Offline = true
	}
	if cfg.API.Offline {
		offline.SetOfflineMode(true)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// SetupLogging routes the standard logger for a command. CLI commands
// log to stderr only with --verbose. The TUI owns the terminal, so it
// always logs to the log file. The returned closer is never nil.
func SetupLogging(args Args, tui bool) (io.Closer, error) {
	log.SetFlags(log.LstdFlags)
	if !tui {
		if args.Verbose {
			log.SetOutput(os.Stderr)
		} else {
			log.SetOutput(io.Discard)
		}
		return io.NopCloser(nil), nil
	}

	path, err := config.LogPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}

// =============================================================================
// APP
// =============================================================================

// App is the wired client: storage, knowledge base, resolver and session
// built from one configuration.
type App struct {
	Config    *config.Config
	KV        storage.KV
	Store     *storage.ConversationStore
	Prefs     *storage.Preferences
	Knowledge *knowledge.Holder
	Resolver  *resolver.Resolver
	Session   *session.Session

	// Out receives command output.
	Out io.Writer

	watcher *knowledge.Watcher
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	resolverOpts []resolver.Option
	sessionOpts  []session.Option
}

// WithResolverOptions appends resolver options.
func WithResolverOptions(opts ...resolver.Option) AppOption {
	return func(o *appOptions) { o.resolverOpts = append(o.resolverOpts, opts...) }
}

// WithSessionOptions appends session options.
func WithSessionOptions(opts ...session.Option) AppOption {
	return func(o *appOptions) { o.sessionOpts = append(o.sessionOpts, opts...) }
}

// NewApp opens storage and builds the session for cfg. Close releases it.
func NewApp(cfg *config.Config, out io.Writer, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	kv, err := storage.OpenKV(cfg.Storage.Backend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	kb, err := LoadKnowledge(cfg.Knowledge.File)
	if err != nil {
		kv.Close()
		return nil, err
	}
	holder := knowledge.NewHolder(kb)

	var remote resolver.Remote
	if !cfg.API.Offline {
		remote = backend.NewClient(cfg.API.ResolveBaseURL()).WithTimeout(cfg.API.Timeout())
	}

	rOpts := []resolver.Option{resolver.WithDelay(cfg.Resolver.MinDelay(), cfg.Resolver.MaxDelay())}
	if cfg.Resolver.Seed != 0 {
		rOpts = append(rOpts, resolver.WithSeed(cfg.Resolver.Seed))
	}
	res := resolver.New(remote, holder, append(rOpts, o.resolverOpts...)...)

	store := storage.NewConversationStore(kv)
	prefs := storage.NewPreferences(kv)
	sOpts := append([]session.Option{session.WithDefaultTheme(cfg.UI.Theme)}, o.sessionOpts...)

	app := &App{
		Config:    cfg,
		KV:        kv,
		Store:     store,
		Prefs:     prefs,
		Knowledge: holder,
		Resolver:  res,
		Session:   session.New(store, res, prefs, sOpts...),
		Out:       out,
	}

	if cfg.Knowledge.Watch && cfg.Knowledge.File != "" {
		if err := app.watchKnowledge(); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// OpenApp loads the configuration for args and builds an App writing to
// stdout.
func OpenApp(args Args) (*App, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}
	return NewApp(cfg, os.Stdout)
}

// LoadKnowledge loads path, or the built-in base when path is empty.
func LoadKnowledge(path string) (*knowledge.Base, error) {
	if path == "" {
		return knowledge.Builtin(), nil
	}
	kb, err := knowledge.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	return kb, nil
}

func (a *App) watchKnowledge() error {
	w, err := knowledge.NewWatcher(a.Config.Knowledge.File, a.Knowledge, knowledge.DefaultDebounce, nil)
	if err != nil {
		return fmt.Errorf("watch knowledge base: %w", err)
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return fmt.Errorf("watch knowledge base: %w", err)
	}
	a.watcher = w
	return nil
}

// Close stops the knowledge watcher and closes storage.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Close()
	}
	return a.KV.Close()
}

// printf writes to the app's output.
func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Out, format, args...)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, highlight(string(data), "json"))
	return err
}
