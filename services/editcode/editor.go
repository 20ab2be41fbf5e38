// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package editcode runs one LLM code-edit round-trip over an in-memory
// file snapshot.
//
// # Description
//
// An Editor builds the prompt context from the snapshot, assembles the
// prompt for the chosen edit format, calls the model exactly once, parses
// the response, applies the parsed operations to a copy of the snapshot and
// finally looks up cost accounting for the generation.
//
// # Thread Safety
//
// Editor is safe for concurrent use. Each call owns its snapshot copy.
package editcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/editcode/pkg/logging"
	"github.com/AleutianAI/editcode/services/editcode/format"
	"github.com/AleutianAI/editcode/services/editcode/metadata"
	"github.com/AleutianAI/editcode/services/editcode/patch"
	"github.com/AleutianAI/editcode/services/editcode/prompt"
)

// =============================================================================
// Editor
// =============================================================================

// Option configures an Editor.
type Option func(*Editor)

// WithMetadataSource sets the accounting lookup. Default: metadata.NewFetcher().
func WithMetadataSource(src MetadataSource) Option {
	return func(e *Editor) {
		e.metadata = src
	}
}

// WithApplier sets the patch applier. Default: patch.NewApplier().
func WithApplier(a *patch.Applier) Option {
	return func(e *Editor) {
		e.applier = a
	}
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithMetadataPolicy sets how metadata failures are handled.
func WithMetadataPolicy(p MetadataPolicy) Option {
	return func(e *Editor) {
		e.policy = p
	}
}

// WithPromptOptions overrides the context truncation limits.
func WithPromptOptions(o prompt.Options) Option {
	return func(e *Editor) {
		e.promptOpts = o
	}
}

// Editor orchestrates edit calls.
type Editor struct {
	model      Model
	metadata   MetadataSource
	applier    *patch.Applier
	logger     *logging.Logger
	policy     MetadataPolicy
	promptOpts prompt.Options
}

// NewEditor creates an Editor around model.
//
// # Inputs
//
//   - model: The model to call. Must not be nil.
//   - opts: Optional configuration.
//
// # Outputs
//
//   - *Editor: Ready to use.
//   - error: ErrNilModel if model is nil.
func NewEditor(model Model, opts ...Option) (*Editor, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	e := &Editor{
		model:      model,
		policy:     MetadataFailAbort,
		promptOpts: prompt.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metadata == nil {
		e.metadata = metadata.NewFetcher()
	}
	if e.applier == nil {
		e.applier = patch.NewApplier()
	}
	e.logger = logging.OrNop(e.logger)
	return e, nil
}

// Policy returns the configured metadata policy.
func (e *Editor) Policy() MetadataPolicy {
	return e.policy
}

// Edit runs one edit round-trip.
//
// # Description
//
// Steps, in order:
//
//  1. Validate req and resolve its format.
//  2. Build the prompt context and assemble the prompt.
//  3. Call the model once. Its error is returned wrapped in ErrModelFailed.
//  4. Parse the response. No recognizable blocks is not an error: the
//     snapshot comes back unchanged with ParseMiss set.
//  5. Apply the operations to a copy of req.Files.
//  6. Fetch accounting when the model returned a generation id and
//     req.APIKey is set.
//
// # Outputs
//
//   - *Result: The edited snapshot, raw response and accounting fields.
//   - error: ErrInvalidRequest, ErrModelFailed, a *patch.ApplyError, or a
//     metadata error (only under MetadataFailAbort).
//
// # Thread Safety
//
// Safe for concurrent use.
func (e *Editor) Edit(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	formatName := string(req.Format)
	if formatName == "" {
		formatName = string(format.DefaultFormat)
	}

	ctx, span := startEditSpan(ctx, formatName, req.Files.Len())
	defer span.End()

	res, ops, outcome, err := e.edit(ctx, req)
	setEditSpanResult(span, res, outcome, err)
	recordEditMetrics(ctx, time.Since(start), formatName, outcome, ops)
	return res, err
}

// edit does the work of Edit. ops is the parsed operation count, or -1 when
// parsing was never reached.
func (e *Editor) edit(ctx context.Context, req Request) (*Result, int, string, error) {
	f, err := format.ParseEditFormat(string(req.Format))
	if err != nil {
		return nil, -1, outcomeInvalidRequest, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return nil, -1, outcomeInvalidRequest, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	logger := e.logger.With("format", string(f))

	pctx := prompt.BuildContextWithOptions(req.Files, e.promptOpts)
	text := prompt.Assemble(prompt.Request{Task: req.Prompt, Context: pctx, Format: f})
	logger.Debug("prompt assembled",
		"files", len(pctx.Files),
		"images", len(pctx.Images),
		"prompt_chars", len(text))

	gen, err := e.model.Generate(ctx, text)
	if err != nil {
		logger.Error("model call failed", "error", err)
		return nil, -1, outcomeModelError, fmt.Errorf("%w: %w", ErrModelFailed, err)
	}
	logger = logger.With("generation_id", gen.ID)

	ops, err := format.Parse(f, gen.Text)
	if err != nil {
		return nil, -1, outcomeInvalidRequest, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	logger.Debug("response parsed", "operations", ops.Len(), "files", ops.FileNames())

	res := &Result{
		RawResponse:     gen.Text,
		GenerationID:    gen.ID,
		Model:           gen.Model,
		TemplateVersion: prompt.TemplateVersion,
		Format:          f,
		ParseMiss:       ops.Empty(),
	}
	if res.ParseMiss {
		logger.Warn("response contained no edit blocks", "response_chars", len(gen.Text))
	}

	edited, err := e.applier.Apply(req.Files, ops)
	if err != nil {
		var applyErr *patch.ApplyError
		if errors.As(err, &applyErr) {
			logger.Warn("edit rejected",
				"operation", applyErr.Index,
				"file", applyErr.FileName,
				"hint", applyErr.Hint)
		}
		return nil, ops.Len(), outcomeApplyError, err
	}
	res.Files = edited
	res.Changes = patch.Summarize(req.Files, edited)

	if gen.ID == "" || req.APIKey == "" {
		logger.Debug("metadata lookup skipped",
			"has_generation_id", gen.ID != "",
			"has_api_key", req.APIKey != "")
	} else {
		meta, err := e.metadata.Fetch(ctx, gen.ID, req.APIKey)
		if err != nil {
			if e.policy == MetadataFailAbort {
				logger.Error("metadata lookup failed, discarding edit", "error", err)
				return nil, ops.Len(), outcomeMetadataError, fmt.Errorf("fetch generation metadata: %w", err)
			}
			logger.Warn("metadata lookup failed, keeping edit", "error", err)
			res.MetadataErr = err
		} else {
			res.setMetadata(meta)
		}
	}

	logger.Info("edit complete",
		"operations", ops.Len(),
		"changes", len(res.Changes.Changes),
		"lines_added", res.Changes.Added,
		"lines_removed", res.Changes.Removed,
		"cost_cents", res.CostCents)
	return res, ops.Len(), outcomeSuccess, nil
}
