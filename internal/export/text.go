// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"time"

	"github.com/kluniversity/klu-agent/internal/model"
)

var (
	headerRule  = strings.Repeat("=", 50)
	messageRule = strings.Repeat("─", 40)
)

// TextExporter renders the plain text transcript.
type TextExporter struct{}

// Export implements Exporter.
func (TextExporter) Export(msgs []model.Message, exportedAt time.Time) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrNothingToExport
	}

	var sb strings.Builder
	sb.WriteString("KLU Agent - Chat Export\n")
	sb.WriteString(headerRule + "\n")
	sb.WriteString("Exported: " + exportedAt.Format(TimestampLayout) + "\n\n")

	for _, msg := range msgs {
		sb.WriteString(roleHeading(msg.Role) + ":\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n" + messageRule + "\n\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (TextExporter) FileExtension() string { return ".txt" }

// MimeType implements Exporter.
func (TextExporter) MimeType() string { return "text/plain; charset=utf-8" }

func roleHeading(r model.Role) string {
	if r == model.RoleUser {
		return "👤 You"
	}
	return "🤖 KLU Agent"
}
