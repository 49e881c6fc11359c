// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the KLU Agent chat API.
//
// The API exposes a single endpoint:
//
//	POST <base>/api/chat  {"message": "..."}
//	200 {"answer": "...", "sources": ["..."], "tools_used": [], "response_time": 1.23}
//
// The client makes exactly one attempt per question. Transport failures,
// non-2xx statuses and undecodable bodies are all returned as errors so the
// caller can fall back to the local knowledge base.
package backend
