// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"KLU_API_URL", "KLU_ORIGIN", "KLU_OFFLINE", "KLU_STORAGE_BACKEND",
	"KLU_DATA_DIR", "KLU_KNOWLEDGE_FILE", "KLU_THEME", "KLU_EXPORT_DIR",
	"KLU_SERVER_ADDR",
}

// isolate points KLU_HOME at a temp dir and blanks every override.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("KLU_HOME", home)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	return home
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Resolver.MinDelayMs)
	assert.Equal(t, 2000, cfg.Resolver.MaxDelayMs)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, 0, cfg.API.TimeoutSecs)
	assert.Zero(t, cfg.API.Timeout(), "no client timeout unless configured")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoad_TOMLOverridesSomeKeys(t *testing.T) {
	home := isolate(t)
	data := `
[api]
origin = "https://chat.kluniversity.in"

[resolver]
min_delay_ms = 0
max_delay_ms = 100

[storage]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(data), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.kluniversity.in", cfg.API.ResolveBaseURL())
	assert.Equal(t, 0, cfg.Resolver.MinDelayMs, "explicit zero is kept")
	assert.Equal(t, 100, cfg.Resolver.MaxDelayMs)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 80, cfg.UI.WordWrap, "untouched keys keep defaults")
}

func TestLoad_InvalidTOML(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[api"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("KLU_API_URL", "http://api.example.edu:9000/")
	t.Setenv("KLU_OFFLINE", "true")
	t.Setenv("KLU_THEME", "LIGHT")
	t.Setenv("KLU_STORAGE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.edu:9000", cfg.API.ResolveBaseURL())
	assert.True(t, cfg.API.Offline)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KLU_ORIGIN=https://from-dotenv.example\nKLU_THEME=light\n"), 0600))
	t.Setenv("KLU_THEME", "dark")
	os.Unsetenv("KLU_ORIGIN")
	t.Cleanup(func() { os.Unsetenv("KLU_ORIGIN") })

	LoadDotEnv(path)
	assert.Equal(t, "https://from-dotenv.example", os.Getenv("KLU_ORIGIN"))
	assert.Equal(t, "dark", os.Getenv("KLU_THEME"))
}

func TestResolveBaseURL_DefaultIsDevelopment(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", APIConfig{}.ResolveBaseURL())
	assert.Equal(t, "http://localhost:8000", APIConfig{Origin: "http://127.0.0.1:5500"}.ResolveBaseURL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad base url", func(c *Config) { c.API.BaseURL = "ftp://x" }, "api.base_url"},
		{"negative delay", func(c *Config) { c.Resolver.MinDelayMs = -1 }, "resolver.min_delay_ms"},
		{"inverted delay", func(c *Config) { c.Resolver.MaxDelayMs = 10 }, "resolver.max_delay_ms"},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"watch without file", func(c *Config) { c.Knowledge.Watch = true }, "knowledge.watch"},
		{"theme", func(c *Config) { c.UI.Theme = "purple" }, "ui.theme"},
		{"word wrap", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap"},
		{"rate", func(c *Config) { c.Server.RateLimit = 0 }, "server.rate_limit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.Origin = "https://chat.kluniversity.in"
	cfg.Resolver.Seed = 99
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.Origin, loaded.API.Origin)
	assert.Equal(t, uint64(99), loaded.Resolver.Seed)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("ui.theme", "light"))
	v, err := cfg.Get("ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	require.NoError(t, cfg.Set("api.offline", "true"))
	assert.True(t, cfg.API.Offline)

	require.NoError(t, cfg.Set("resolver.max_delay_ms", "500"))
	assert.Equal(t, 500, cfg.Resolver.MaxDelayMs)

	require.NoError(t, cfg.Set("server.allowed_origins", "https://a.edu, https://b.edu"))
	assert.Equal(t, []string{"https://a.edu", "https://b.edu"}, cfg.Server.AllowedOrigins)

	assert.Error(t, cfg.Set("resolver.max_delay_ms", "soon"))
	assert.Error(t, cfg.Set("nope.key", "x"))
	_, err = cfg.Get("ui")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "knowledge.watch")
	for _, k := range keys {
		_, err := Default().Get(k)
		assert.NoError(t, err, k)
	}
}

// TestConfig_ConcurrentAccess checks Global and SetGlobal under the race detector.
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
