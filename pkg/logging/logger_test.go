// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	if LevelWarn.toSlogLevel() != slog.LevelWarn {
		t.Errorf("LevelWarn should map to slog.LevelWarn")
	}
	if Level(42).toSlogLevel() != slog.LevelInfo {
		t.Errorf("unknown levels should map to slog.LevelInfo")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Writer: &buf, Service: "editcode"})

	logger.Debug("parsing response", "format", "udiff")

	out := buf.String()
	if !strings.Contains(out, "parsing response") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "service=editcode") {
		t.Errorf("output missing service attribute: %q", out)
	}
	if !strings.Contains(out, "format=udiff") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Writer: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message should be written: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, JSON: true})

	logger.Info("edit applied")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestExporter_ReceivesEntriesWithAttrs(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter, Service: "svc"})

	child := logger.With("request_id", "r1")
	child.Warn("retrying", "attempt", 2)
	logger.Debug("below level")

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Message != "retrying" || e.Level != LevelWarn || e.Service != "svc" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Attrs["request_id"] != "r1" || e.Attrs["attempt"] != 2 {
		t.Errorf("unexpected attrs: %v", e.Attrs)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNop_DiscardsEverything(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := Nop()
	logger.exporter = exporter

	logger.Error("dropped")
	logger.With("k", "v").Info("dropped too")

	if n := len(exporter.Entries()); n != 0 {
		t.Errorf("Nop logger exported %d entries", n)
	}
}

func TestNilLogger_IsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("nothing happens")
	logger.With("a", 1).Warn("still nothing")
	if logger.Slog() == nil {
		t.Error("Slog() on nil logger should not return nil")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger = %v", err)
	}
	if OrNop(nil) == nil {
		t.Error("OrNop(nil) returned nil")
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With("worker", i).Info("tick")
		}(i)
	}
	wg.Wait()

	if n := len(exporter.Messages()); n != 20 {
		t.Errorf("expected 20 entries, got %d", n)
	}
}
