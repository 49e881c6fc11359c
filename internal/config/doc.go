// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the KLU Agent.
//
// Sources, lowest precedence first:
//   - Built-in defaults (Default)
//   - ~/.klu-agent/config.toml
//   - A .env file in the working directory (never overrides real variables)
//   - KLU_* environment variables
//
// # Environment
//
//	KLU_HOME             configuration directory (default ~/.klu-agent)
//	KLU_API_URL          api.base_url
//	KLU_ORIGIN           api.origin
//	KLU_OFFLINE          api.offline (1/true)
//	KLU_STORAGE_BACKEND  storage.backend (file, sqlite, memory)
//	KLU_DATA_DIR         storage.dir
//	KLU_KNOWLEDGE_FILE   knowledge.file
//	KLU_THEME            ui.theme
//	KLU_EXPORT_DIR       export.dir
//	KLU_SERVER_ADDR      server.addr
//
// # Usage
//
//	cfg, err := config.Load()
//	base := cfg.API.ResolveBaseURL()
package config
