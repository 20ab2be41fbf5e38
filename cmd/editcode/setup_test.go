// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/editcode/cmd/editcode/config"
	"github.com/AleutianAI/editcode/pkg/logging"
	"github.com/AleutianAI/editcode/pkg/ux"
	"github.com/AleutianAI/editcode/services/editcode"
	"github.com/AleutianAI/editcode/services/editcode/files"
	"github.com/AleutianAI/editcode/services/editcode/format"
	"github.com/AleutianAI/editcode/services/editcode/patch"
	"github.com/AleutianAI/editcode/services/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInstruction(t *testing.T) {
	p, err := instruction("  fix it ", []string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, "fix it", p)

	p, err = instruction("", []string{"add", "a", "footer"})
	require.NoError(t, err)
	assert.Equal(t, "add a footer", p)

	_, err = instruction(" ", nil)
	assert.ErrorIs(t, err, errNoPrompt)
}

func TestApplyEditFlags(t *testing.T) {
	defer func() {
		editFormat, editModel, editPolicy, logLevel = "", "", "", ""
		editInclude, editExclude = nil, nil
	}()

	cfg := config.DefaultConfig()
	applyEditFlags(&cfg)
	assert.Equal(t, config.DefaultConfig().Edit, cfg.Edit, "no flags, no change")

	editFormat = "udiff"
	editModel = "anthropic/claude-sonnet"
	editPolicy = "keep"
	logLevel = "debug"
	editInclude = []string{"**/*.js"}
	applyEditFlags(&cfg)

	assert.Equal(t, "udiff", cfg.Edit.Format)
	assert.Equal(t, "anthropic/claude-sonnet", cfg.Model.Name)
	assert.Equal(t, "keep", cfg.Metadata.Policy)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"**/*.js"}, cfg.Edit.Include)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(""))
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EDITCODE_TEST_KEY=from-file\n"), 0o600))
	t.Setenv("EDITCODE_TEST_KEY", "")
	os.Unsetenv("EDITCODE_TEST_KEY")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("EDITCODE_TEST_KEY"))

	// Existing variables are not overwritten.
	t.Setenv("EDITCODE_TEST_KEY", "from-env")
	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("EDITCODE_TEST_KEY"))
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNewFetcher(t *testing.T) {
	cfg := config.DefaultConfig().Metadata
	cfg.MaxAttempts = 3
	cfg.RetryDelay = 50 * time.Millisecond
	f := newFetcher(cfg, logging.Nop(), nil)

	assert.Equal(t, cfg.BaseURL, f.BaseURL)
	assert.Equal(t, 3, f.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, f.RetryDelay)
	assert.Nil(t, f.Metrics)
}

func TestNewEditor(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := newEditor(cfg, "", logging.Nop(), nil)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)

	cfg.Metadata.Policy = "keep"
	ed, err := newEditor(cfg, "sk-test", logging.Nop(), nil)
	require.NoError(t, err)
	assert.Equal(t, editcode.MetadataKeepChanges, ed.Policy())
}

// TestEditorOptions verifies the edit section's limits reach the prompt.
func TestEditorOptions(t *testing.T) {
	var got string
	model := editcode.ModelFunc(func(_ context.Context, p string) (llm.Generation, error) {
		got = p
		return llm.Generation{Text: "no edits"}, nil
	})
	cfg := config.DefaultConfig().Edit
	cfg.DefaultLineLimit = 2
	cfg.MaxLineLength = 4

	ed, err := editcode.NewEditor(model, editorOptions(cfg, logging.Nop())...)
	require.NoError(t, err)
	snap := files.MustNew(map[files.FileID]files.File{
		"f1": {Name: "a.js", Text: "abcdefgh\nsecond\nthird"},
	})
	_, err = ed.Edit(context.Background(), editcode.Request{Prompt: "x", Files: snap})
	require.NoError(t, err)

	assert.Contains(t, got, "abcd\nseco")
	assert.NotContains(t, got, "abcde")
	assert.NotContains(t, got, "third")
}

func TestFormatLine(t *testing.T) {
	assert.Equal(t, "whole, diff, diff-fenced, udiff", formatNames())
	assert.Equal(t, "model m, format whole", formatLine("m", format.FormatWhole))
	assert.Equal(t, "model m, format udiff (updates existing files only)", formatLine("m", format.FormatUdiff))
}

func TestReportEditError(t *testing.T) {
	var buf bytes.Buffer
	p := ux.NewPrinter(&buf, ux.LevelMachine)

	reportEditError(p, fmt.Errorf("other failure"))
	assert.Empty(t, buf.String())

	err := &patch.ApplyError{
		Index:    1,
		FileName: "index.html",
		Kind:     patch.KindDiff,
		Hint:     "Did you mean to match this line?",
		Err:      patch.ErrSearchNotFound,
	}
	reportEditError(p, fmt.Errorf("wrapped: %w", err))
	out := buf.String()
	assert.Contains(t, out, "Edit 2 for index.html did not apply")
	assert.Contains(t, out, "Did you mean to match this line?")
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	p := ux.NewPrinter(&buf, ux.LevelFull)

	printUsage(p, &editcode.Result{})
	assert.Empty(t, buf.String())

	printUsage(p, &editcode.Result{Model: "gpt", InputTokens: 10, OutputTokens: 5, CostCents: 0.25})
	assert.Contains(t, buf.String(), "gpt, 10 in / 5 out tokens, 0.2500¢")
}

func TestNewRouter(t *testing.T) {
	model := editcode.ModelFunc(func(ctx context.Context, prompt string) (llm.Generation, error) {
		return llm.Generation{Text: "no edits"}, nil
	})
	ed, err := editcode.NewEditor(model)
	require.NoError(t, err)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("editcode_up 1\n"))
	})
	router := newRouter(editcode.NewHandlers(ed, ""), metrics)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "editcode_up")

	noMetrics := newRouter(editcode.NewHandlers(ed, ""), nil)
	w = httptest.NewRecorder()
	noMetrics.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
