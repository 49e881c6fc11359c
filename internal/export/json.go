// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/kluniversity/klu-agent/internal/model"
)

// JSONExporter writes the messages with an export timestamp.
type JSONExporter struct{}

type jsonTranscript struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Messages   []model.Message `json:"messages"`
}

// Export implements Exporter.
func (JSONExporter) Export(msgs []model.Message, exportedAt time.Time) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrNothingToExport
	}
	return json.MarshalIndent(jsonTranscript{ExportedAt: exportedAt, Messages: msgs}, "", "  ")
}

// FileExtension implements Exporter.
func (JSONExporter) FileExtension() string { return ".json" }

// MimeType implements Exporter.
func (JSONExporter) MimeType() string { return "application/json" }
