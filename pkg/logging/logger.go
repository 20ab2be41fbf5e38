// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for editcode components.
//
// The logger is a thin layer over log/slog with two additions: an optional
// LogExporter that receives every entry as a LogEntry (used by tests and by
// hosts that forward logs elsewhere), and a no-op mode so that library code
// can always hold a *Logger without caring whether the caller wants output.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug, Service: "editcode"})
//	logger.Info("edit started", "format", "diff", "files", 3)
//
// # No-op Default
//
// Services accept a *Logger and fall back to Nop() when none is supplied.
// A nil *Logger is also safe to call and discards everything:
//
//	var logger *logging.Logger
//	logger.Debug("ignored")
//
// # Thread Safety
//
// Logger is safe for concurrent use. The underlying slog.Logger is
// thread-safe and exporters are expected to synchronise internally.
//
// # Security Considerations
//
// Nothing is redacted automatically. Never log credentials:
//
//	logger.Info("metadata fetch", "api_key_present", apiKey != "")
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting (parser decisions,
	// per-attempt retry details).
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages (edit completed).
	LevelInfo

	// LevelWarn is for recoverable problems (retry attempt, parse miss).
	LevelWarn

	// LevelError is for failed operations.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name to a Level.
//
// An empty string yields LevelInfo. Unknown names return an error so that
// configuration typos surface early.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// A zero-value Config writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level. Default: LevelInfo.
	Level Level

	// Service is attached to every entry as the "service" attribute.
	Service string

	// JSON switches the writer output to JSON. Default: text.
	JSON bool

	// Writer receives formatted output. Default: os.Stderr.
	Writer io.Writer

	// Quiet disables the writer entirely. Entries still reach the Exporter.
	Quiet bool

	// Exporter optionally receives every entry at or above Level.
	Exporter LogExporter
}

// =============================================================================
// Export Interface
// =============================================================================

// LogExporter receives structured log entries.
//
// Export is called synchronously from the logging call, so implementations
// must be cheap or buffer internally.
type LogExporter interface {
	// Export records one entry. Errors are dropped by the Logger.
	Export(ctx context.Context, entry LogEntry) error

	// Flush sends anything buffered. Called from Close.
	Flush(ctx context.Context) error

	// Close releases resources. Called from Close after Flush.
	Close() error
}

// LogEntry is the exporter view of one log call.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Service   string
	Attrs     map[string]any
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with an optional exporter.
//
// # Thread Safety
//
// Safe for concurrent use.
type Logger struct {
	slog     *slog.Logger
	config   Config
	attrs    []any
	exporter LogExporter
	nop      bool
	mu       *sync.Mutex
}

// New creates a Logger from config.
//
// # Inputs
//
//   - config: Logger configuration; zero value is valid.
//
// # Outputs
//
//   - *Logger: Ready to use. Call Close to flush the exporter.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	if config.Quiet {
		w = io.Discard
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	return &Logger{
		slog:     slog.New(handler),
		config:   config,
		exporter: config.Exporter,
		mu:       &sync.Mutex{},
	}
}

// Default returns an Info-level stderr text logger for the CLI.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "editcode"})
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{
		slog: slog.New(slog.NewTextHandler(io.Discard, nil)),
		nop:  true,
		mu:   &sync.Mutex{},
	}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// With returns a child logger carrying additional attributes.
//
// The parent is unchanged. Attributes are also passed to the exporter.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return Nop()
	}
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)
	return &Logger{
		slog:     l.slog.With(args...),
		config:   l.config,
		attrs:    attrs,
		exporter: l.exporter,
		nop:      l.nop,
		mu:       l.mu,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return Nop().slog
	}
	return l.slog
}

// Close flushes and closes the exporter, if any.
func (l *Logger) Close() error {
	if l == nil || l.exporter == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.exporter.Flush(ctx); err != nil {
		return fmt.Errorf("flush exporter: %w", err)
	}
	if err := l.exporter.Close(); err != nil {
		return fmt.Errorf("close exporter: %w", err)
	}
	return nil
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if l == nil || l.nop {
		return
	}
	l.slog.Log(context.Background(), level.toSlogLevel(), msg, args...)

	if l.exporter != nil && level >= l.config.Level {
		all := make([]any, 0, len(l.attrs)+len(args))
		all = append(all, l.attrs...)
		all = append(all, args...)
		_ = l.exporter.Export(context.Background(), LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Message:   msg,
			Service:   l.config.Service,
			Attrs:     argsToMap(all),
		})
	}
}

// argsToMap converts slog-style key-value args to a map.
func argsToMap(args []any) map[string]any {
	result := make(map[string]any, len(args)/2)
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			result[key] = args[i+1]
		}
	}
	return result
}

// =============================================================================
// Built-in Exporters
// =============================================================================

// BufferedExporter collects entries in memory. Intended for tests:
//
//	exporter := logging.NewBufferedExporter()
//	logger := logging.New(logging.Config{Quiet: true, Exporter: exporter})
//	logger.Info("edit applied", "format", "whole")
//	entries := exporter.Entries()
type BufferedExporter struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewBufferedExporter creates an empty BufferedExporter.
func NewBufferedExporter() *BufferedExporter {
	return &BufferedExporter{entries: make([]LogEntry, 0, 32)}
}

// Export appends the entry.
func (e *BufferedExporter) Export(_ context.Context, entry LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	return nil
}

// Flush is a no-op.
func (e *BufferedExporter) Flush(context.Context) error { return nil }

// Close is a no-op.
func (e *BufferedExporter) Close() error { return nil }

// Entries returns a copy of the collected entries.
func (e *BufferedExporter) Entries() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]LogEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Messages returns the message of every collected entry, in order.
func (e *BufferedExporter) Messages() []string {
	entries := e.Entries()
	out := make([]string, len(entries))
	for i, entry := range entries {
		out[i] = entry.Message
	}
	return out
}

var _ LogExporter = (*BufferedExporter)(nil)
