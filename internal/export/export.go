// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kluniversity/klu-agent/internal/model"
	"github.com/kluniversity/klu-agent/internal/util"
)

// ErrNothingToExport is returned for an empty message list.
var ErrNothingToExport = errors.New("nothing to export")

// ErrUnknownFormat is returned by ForFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// TimestampLayout renders the export time in a locale-style form,
// e.g. "1/15/2025, 9:00:00 AM".
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript.
type Exporter interface {
	// Export renders msgs as exported at the given time.
	Export(msgs []model.Message, exportedAt time.Time) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// ForFormat returns the exporter for "text", "markdown" or "json".
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "txt":
		return TextExporter{}, nil
	case "markdown", "md":
		return MarkdownExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want text, markdown or json)", ErrUnknownFormat, format)
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// Filename returns klu-agent-chat-<epoch millis><ext>.
func Filename(at time.Time, ext string) string {
	return "klu-agent-chat-" + strconv.FormatInt(at.UnixMilli(), 10) + ext
}

// ToFile renders msgs with exporter and writes the result into dir.
// It returns the written path.
func ToFile(msgs []model.Message, exporter Exporter, dir string, at time.Time) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNothingToExport
	}
	if exporter == nil {
		exporter = TextExporter{}
	}

	content, err := exporter.Export(msgs, at)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(at, exporter.FileExtension()))
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
