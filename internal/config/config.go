// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/kluniversity/klu-agent/internal/backend"
	"github.com/kluniversity/klu-agent/internal/offline"
	"github.com/kluniversity/klu-agent/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete KLU Agent configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Resolver  ResolverConfig  `toml:"resolver"`
	Storage   StorageConfig   `toml:"storage"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	UI        UIConfig        `toml:"ui"`
	Export    ExportConfig    `toml:"export"`
	Server    ServerConfig    `toml:"server"`
}

// APIConfig configures the remote chat API.
type APIConfig struct {
	// BaseURL, when set, is used as is.
	BaseURL string `toml:"base_url"`

	// Origin is the address the client is served from. Loopback origins
	// talk to the development server on localhost:8000.
	Origin string `toml:"origin"`

	// Offline skips the remote API entirely.
	Offline bool `toml:"offline"`

	// TimeoutSecs bounds one request. 0 (the default) leaves requests to
	// the transport's own limits.
	TimeoutSecs int `toml:"timeout_secs"`
}

// ResolverConfig tunes local answers.
type ResolverConfig struct {
	MinDelayMs int `toml:"min_delay_ms"`
	MaxDelayMs int `toml:"max_delay_ms"`

	// Seed fixes response selection when non-zero.
	Seed uint64 `toml:"seed"`
}

// StorageConfig selects where conversations live.
type StorageConfig struct {
	Backend string `toml:"backend"` // file, sqlite, memory
	Dir     string `toml:"dir"`
}

// KnowledgeConfig points at an optional knowledge base file.
type KnowledgeConfig struct {
	File  string `toml:"file"`
	Watch bool   `toml:"watch"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	Theme    string `toml:"theme"` // dark, light, system
	WordWrap int    `toml:"word_wrap"`
}

// ExportConfig configures transcript export.
type ExportConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig configures `klu-agent serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	RateLimit      float64  `toml:"rate_limit"` // requests per second per client
	RateBurst      int      `toml:"rate_burst"`
	AllowedOrigins []string `toml:"allowed_origins"`

	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a reverse proxy.
	TrustProxy bool `toml:"trust_proxy"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			MinDelayMs: 800,
			MaxDelayMs: 2000,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		UI: UIConfig{
			Theme:    "dark",
			WordWrap: 80,
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8000",
			RateLimit:      5,
			RateBurst:      10,
			AllowedOrigins: []string{"*"},
		},
	}
}

// ResolveBaseURL returns the chat API base URL.
func (a APIConfig) ResolveBaseURL() string {
	if a.BaseURL != "" {
		return strings.TrimRight(a.BaseURL, "/")
	}
	return backend.ResolveBaseURL(a.Origin)
}

// Timeout returns the request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// MinDelay returns the minimum local answer pause.
func (r ResolverConfig) MinDelay() time.Duration {
	return time.Duration(r.MinDelayMs) * time.Millisecond
}

// MaxDelay returns the maximum local answer pause.
func (r ResolverConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory, honoring KLU_HOME.
func ConfigDir() (string, error) {
	if dir := os.Getenv("KLU_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".klu-agent"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the storage directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// LogPath returns the log file used while the TUI owns the terminal.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "klu-agent.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads config.toml (if present), applies .env and environment
// overrides, fills defaults and validates.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit config file path. A missing file
// is not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}

	LoadDotEnv(".env")
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep their
// current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
	}
}

// fillDefaults restores empty string settings to their defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = defaults.Export.Dir
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path atomically.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# KLU Agent configuration file\n")
	sb.WriteString("# Generated by klu-agent - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors if anything
// is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL != "" {
		if err := offline.ValidateURL(c.API.BaseURL); err != nil {
			errs = append(errs, ValidationError{"api.base_url", err.Error()})
		}
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{"api.timeout_secs", "must not be negative"})
	}

	if c.Resolver.MinDelayMs < 0 {
		errs = append(errs, ValidationError{"resolver.min_delay_ms", "must not be negative"})
	}
	if c.Resolver.MaxDelayMs < c.Resolver.MinDelayMs {
		errs = append(errs, ValidationError{"resolver.max_delay_ms", "must be >= resolver.min_delay_ms"})
	}

	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, ValidationError{"storage.backend", fmt.Sprintf("unknown backend %q (want file, sqlite or memory)", c.Storage.Backend)})
	}

	if c.Knowledge.Watch && c.Knowledge.File == "" {
		errs = append(errs, ValidationError{"knowledge.watch", "requires knowledge.file"})
	}

	switch c.UI.Theme {
	case "dark", "light", "system":
	default:
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("unknown theme %q (want dark, light or system)", c.UI.Theme)})
	}
	if c.UI.WordWrap != 0 && (c.UI.WordWrap < 20 || c.UI.WordWrap > 400) {
		errs = append(errs, ValidationError{"ui.word_wrap", "must be 0 or between 20 and 400"})
	}

	if c.Server.RateLimit <= 0 {
		errs = append(errs, ValidationError{"server.rate_limit", "must be positive"})
	}
	if c.Server.RateBurst < 1 {
		errs = append(errs, ValidationError{"server.rate_burst", "must be at least 1"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies KLU_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KLU_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("KLU_ORIGIN"); v != "" {
		c.API.Origin = v
	}
	if v := os.Getenv("KLU_OFFLINE"); v != "" {
		c.API.Offline = parseBool(v)
	}
	if v := os.Getenv("KLU_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("KLU_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("KLU_KNOWLEDGE_FILE"); v != "" {
		c.Knowledge.File = v
	}
	if v := os.Getenv("KLU_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("KLU_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("KLU_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns the value at a dotted TOML key such as "ui.theme".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field at a dotted TOML key.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false", key)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer", key)
		}
		field.SetInt(int64(n))
	case reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a non-negative integer", key)
		}
		field.SetUint(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number", key)
		}
		field.SetFloat(f)
	case reflect.Slice:
		var items []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%s: unsupported type %s", key, field.Kind())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("unknown key %q (use section.name)", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		found := false
		for j := 0; j < v.NumField(); j++ {
			if tomlName(v.Type().Field(j)) == part {
				v = v.Field(j)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, fmt.Errorf("unknown key %q", strings.Join(parts[:i+1], "."))
		}
		if i == 0 && v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("unknown key %q", key)
		}
	}
	return v, nil
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

// Keys lists every settable dotted key.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process configuration, loading it on first use.
// Load failures fall back to defaults with a warning.
func Global() *Config {
	globalConfigOnce.Do(func() {
		globalConfigMu.RLock()
		preset := globalConfig != nil
		globalConfigMu.RUnlock()
		if preset {
			return
		}
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	globalConfigOnce.Do(func() {})
}

// ResetGlobalForTesting clears the singleton.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
