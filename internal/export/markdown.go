// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"time"

	"github.com/kluniversity/klu-agent/internal/model"
)

// MarkdownExporter renders the transcript as Markdown. Bot answers are
// already Markdown and are written unchanged; user messages are quoted.
type MarkdownExporter struct{}

// Export implements Exporter.
func (MarkdownExporter) Export(msgs []model.Message, exportedAt time.Time) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrNothingToExport
	}

	var sb strings.Builder
	sb.WriteString("# KLU Agent - Chat Export\n\n")
	sb.WriteString("*Exported: " + exportedAt.Format(TimestampLayout) + "*\n\n---\n\n")

	for _, msg := range msgs {
		sb.WriteString("### " + roleHeading(msg.Role) + "\n\n")
		if msg.IsUser() {
			sb.WriteString(quote(msg.Content))
		} else {
			sb.WriteString(msg.Content)
		}
		sb.WriteString("\n\n---\n\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (MarkdownExporter) FileExtension() string { return ".md" }

// MimeType implements Exporter.
func (MarkdownExporter) MimeType() string { return "text/markdown; charset=utf-8" }

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}
