// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kluniversity/klu-agent/internal/model"
)

var exportedAt = time.Date(2025, 1, 15, 9, 5, 7, 0, time.UTC)

func sampleMessages() []model.Message {
	return []model.Message{
		model.NewUserMessage("When do admissions open?"),
		model.NewBotMessage("## Admissions\n\nApplications open in **January**."),
	}
}

func TestTextExporter_Format(t *testing.T) {
	out, err := TextExporter{}.Export(sampleMessages(), exportedAt)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	sep := strings.Repeat("─", 40)
	want := "KLU Agent - Chat Export\n" +
		strings.Repeat("=", 50) + "\n" +
		"Exported: 1/15/2025, 9:05:07 AM\n\n" +
		"👤 You:\nWhen do admissions open?\n\n" + sep + "\n\n" +
		"🤖 KLU Agent:\n## Admissions\n\nApplications open in **January**.\n\n" + sep + "\n\n"

	if string(out) != want {
		t.Errorf("unexpected transcript:\n%s\nwant:\n%s", out, want)
	}
}

func TestExporters_RejectEmpty(t *testing.T) {
	for _, e := range []Exporter{TextExporter{}, MarkdownExporter{}, JSONExporter{}} {
		if _, err := e.Export(nil, exportedAt); err != ErrNothingToExport {
			t.Errorf("%T: err = %v, want ErrNothingToExport", e, err)
		}
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := MarkdownExporter{}.Export(sampleMessages(), exportedAt)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "> When do admissions open?") {
		t.Error("user message should be quoted")
	}
	if !strings.Contains(s, "## Admissions") {
		t.Error("bot markdown should be kept")
	}
}

func TestJSONExporter(t *testing.T) {
	out, err := JSONExporter{}.Export(sampleMessages(), exportedAt)
	if err != nil {
		t.Fatal(err)
	}
	var got jsonTranscript
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != model.RoleBot {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	at := time.UnixMilli(1736931907000)

	path, err := ToFile(sampleMessages(), nil, dir, at)
	if err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	if filepath.Base(path) != "klu-agent-chat-1736931907000.txt" {
		t.Errorf("filename = %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "KLU Agent - Chat Export\n") {
		t.Errorf("unexpected content: %q", data[:40])
	}
}

func TestToFile_Empty(t *testing.T) {
	dir := t.TempDir()
	if _, err := ToFile(nil, TextExporter{}, dir, exportedAt); err != ErrNothingToExport {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("no file should be written, found %d", len(entries))
	}
}

func TestForFormat(t *testing.T) {
	cases := map[string]string{"": ".txt", "text": ".txt", "MD": ".md", "json": ".json"}
	for name, ext := range cases {
		e, err := ForFormat(name)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", name, err)
		}
		if e.FileExtension() != ext {
			t.Errorf("ForFormat(%q) ext = %s, want %s", name, e.FileExtension(), ext)
		}
	}
	if _, err := ForFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}
