// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a development backend for the KLU Agent chat API,
// answering from the local knowledge base.
//
// Endpoints:
//   - POST /api/chat        - Answer a question
//   - GET  /api/categories  - List knowledge base categories
//   - GET  /api/faqs        - List answers, optionally ?category=<name>
//   - POST /api/reload      - Reload the knowledge base file
//   - GET  /health          - Health check
//
// Requests pass through request id, real IP, logging, panic recovery, CORS
// and a per-IP rate limit.
package server
