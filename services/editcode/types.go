// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editcode

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/editcode/services/editcode/files"
	"github.com/AleutianAI/editcode/services/editcode/format"
	"github.com/AleutianAI/editcode/services/editcode/metadata"
	"github.com/AleutianAI/editcode/services/editcode/patch"
	"github.com/AleutianAI/editcode/services/llm"
)

// =============================================================================
// Validation
// =============================================================================

// requestValidate is the validator instance for edit requests.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("editformat", validateEditFormat)
}

// validateEditFormat accepts the empty string and every known format name.
func validateEditFormat(fl validator.FieldLevel) bool {
	_, err := format.ParseEditFormat(fl.Field().String())
	return err == nil
}

// =============================================================================
// Model
// =============================================================================

// Model produces a response for an assembled prompt.
//
// Implementations make one request per call. Editor never retries.
type Model interface {
	Generate(ctx context.Context, prompt string) (llm.Generation, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, prompt string) (llm.Generation, error)

// Generate calls f.
func (f ModelFunc) Generate(ctx context.Context, prompt string) (llm.Generation, error) {
	return f(ctx, prompt)
}

// FromLLM adapts an llm.LLMClient, sending params with every call.
func FromLLM(client llm.LLMClient, params llm.GenerationParams) Model {
	return ModelFunc(func(ctx context.Context, prompt string) (llm.Generation, error) {
		return client.Generate(ctx, prompt, params)
	})
}

// MetadataSource looks up accounting data for a generation.
// *metadata.Fetcher implements it.
type MetadataSource interface {
	Fetch(ctx context.Context, generationID, apiKey string) (metadata.Generation, error)
}

// =============================================================================
// Metadata policy
// =============================================================================

// MetadataPolicy decides what a metadata failure does to an edit.
type MetadataPolicy int

const (
	// MetadataFailAbort fails the whole call and discards the edited files.
	MetadataFailAbort MetadataPolicy = iota

	// MetadataKeepChanges returns the edited files and records the failure
	// in Result.MetadataErr.
	MetadataKeepChanges
)

// String returns the policy name used in configuration.
func (p MetadataPolicy) String() string {
	switch p {
	case MetadataFailAbort:
		return "abort"
	case MetadataKeepChanges:
		return "keep"
	default:
		return fmt.Sprintf("MetadataPolicy(%d)", int(p))
	}
}

// ParseMetadataPolicy parses "abort" (or "") and "keep".
func ParseMetadataPolicy(s string) (MetadataPolicy, error) {
	switch s {
	case "", "abort":
		return MetadataFailAbort, nil
	case "keep":
		return MetadataKeepChanges, nil
	default:
		return 0, fmt.Errorf("unknown metadata policy %q", s)
	}
}

// =============================================================================
// Request / Result
// =============================================================================

// Request is one edit call.
type Request struct {
	// Prompt is the user's instruction. Required.
	Prompt string `json:"prompt" validate:"required"`

	// Files is the snapshot to edit. It is never modified.
	Files files.Snapshot `json:"files"`

	// Format selects the edit format. Empty means format.DefaultFormat.
	Format format.EditFormat `json:"format,omitempty" validate:"editformat"`

	// APIKey authorizes the metadata lookup. Empty skips it.
	APIKey string `json:"-"`
}

// Validate checks the request's validator tags.
func (r *Request) Validate() error {
	return requestValidate.Struct(r)
}

// Result is the outcome of a successful edit call.
type Result struct {
	// Files is the edited snapshot.
	Files files.Snapshot `json:"files"`

	// RawResponse is the model's text, unmodified.
	RawResponse string `json:"raw_response"`

	GenerationID string `json:"generation_id,omitempty"`
	Model        string `json:"model,omitempty"`

	// Accounting fields. Zero when the lookup was skipped or failed.
	CostCents    float64 `json:"cost_cents"`
	Provider     string  `json:"provider"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`

	TemplateVersion int               `json:"template_version"`
	Format          format.EditFormat `json:"format"`

	// ParseMiss is true when the response held no recognizable edit blocks.
	ParseMiss bool `json:"parse_miss"`

	// Changes summarizes Files against the request snapshot.
	Changes patch.Report `json:"changes"`

	// MetadataErr is the lookup failure kept under MetadataKeepChanges.
	MetadataErr error `json:"-"`
}

func (r *Result) setMetadata(g metadata.Generation) {
	r.CostCents = g.CostCents
	r.Provider = g.Provider
	r.InputTokens = g.InputTokens
	r.OutputTokens = g.OutputTokens
}
