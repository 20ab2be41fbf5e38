// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metadata retrieves cost and token accounting for a generation.
//
// # Description
//
// OpenRouter-style accounting endpoints are eventually consistent: right
// after a completion the record may not exist yet and the endpoint answers
// with a non-2xx status. Fetcher polls with a fixed delay until a record
// arrives or the attempt budget runs out.
//
// # Thread Safety
//
// Fetcher is safe for concurrent use once configured.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AleutianAI/editcode/pkg/logging"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultMaxAttempts is the total number of requests per Fetch.
	DefaultMaxAttempts = 10

	// DefaultRetryDelay is the wait between attempts.
	DefaultRetryDelay = time.Second

	// DefaultRequestTimeout bounds a single request.
	DefaultRequestTimeout = 30 * time.Second

	maxBodyBytes     = 1 << 20
	maxLastBodyBytes = 512
)

// =============================================================================
// Types
// =============================================================================

// Generation is the accounting record for one model invocation.
type Generation struct {
	// CostCents is the upstream cost in hundredths of a currency unit,
	// rounded to 6 decimal places.
	CostCents float64 `json:"cost_cents"`

	// Provider is the upstream provider label.
	Provider string `json:"provider"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// IsZero reports whether g holds no data (a skipped fetch).
func (g Generation) IsZero() bool {
	return g == Generation{}
}

type generationResponse struct {
	Data struct {
		TotalCost        float64 `json:"total_cost"`
		ProviderName     string  `json:"provider_name"`
		TokensPrompt     int     `json:"tokens_prompt"`
		TokensCompletion int     `json:"tokens_completion"`
	} `json:"data"`
}

// Fetcher polls the accounting endpoint.
//
// Zero-valued fields fall back to the defaults, so &Fetcher{} is usable.
type Fetcher struct {
	// BaseURL is the API root; "/generation" is appended. Default: DefaultBaseURL.
	BaseURL string

	// HTTPClient performs requests. Default: a client with DefaultRequestTimeout.
	HTTPClient *http.Client

	// MaxAttempts is the total request budget. Default: DefaultMaxAttempts.
	MaxAttempts int

	// RetryDelay is the wait between attempts. Default: DefaultRetryDelay.
	RetryDelay time.Duration

	// Logger receives per-attempt diagnostics. Default: no-op.
	Logger *logging.Logger

	// Metrics records attempts and results. Nil disables metrics.
	Metrics *Metrics
}

// NewFetcher returns a Fetcher with every default filled in.
func NewFetcher() *Fetcher {
	return &Fetcher{
		BaseURL:     DefaultBaseURL,
		HTTPClient:  &http.Client{Timeout: DefaultRequestTimeout},
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		Logger:      logging.Nop(),
	}
}

// =============================================================================
// Fetch
// =============================================================================

// Fetch retrieves the accounting record for generationID.
//
// # Description
//
// Issues GET <BaseURL>/generation?id=<generationID> with a bearer token.
// A 2xx response is decoded and returned immediately. Any other status, or
// a transport failure, counts as a failed attempt; after a failed attempt
// Fetch waits RetryDelay and tries again, up to MaxAttempts requests.
//
// When generationID or apiKey is empty nothing is requested and a zero
// Generation is returned.
//
// # Outputs
//
//   - Generation: The parsed record.
//   - error: *ExhaustedError (ErrMetadataExhausted) after the last failed
//     attempt, ErrMetadataCanceled (also wrapping ctx.Err()) if ctx ends
//     first, or ErrInvalidResponse for an undecodable 2xx body.
func (f *Fetcher) Fetch(ctx context.Context, generationID, apiKey string) (Generation, error) {
	logger := logging.OrNop(f.Logger)
	if generationID == "" || apiKey == "" {
		logger.Debug("metadata fetch skipped", "has_generation_id", generationID != "", "has_api_key", apiKey != "")
		f.Metrics.fetch(resultSkipped, 0, 0)
		return Generation{}, nil
	}

	endpoint := f.endpoint(generationID)
	maxAttempts := f.maxAttempts()
	start := time.Now()

	var (
		lastStatus int
		lastBody   string
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				f.Metrics.fetch(resultCanceled, attempt-1, time.Since(start).Seconds())
				return Generation{}, fmt.Errorf("%w after %d attempts: %w", ErrMetadataCanceled, attempt-1, ctx.Err())
			case <-time.After(f.retryDelay()):
			}
		}

		gen, status, body, err := f.fetchOnce(ctx, endpoint, apiKey)
		switch {
		case err == nil:
			f.Metrics.attempt(outcomeSuccess)
			f.Metrics.fetch(resultSuccess, attempt, time.Since(start).Seconds())
			logger.Debug("metadata fetched",
				"generation_id", generationID,
				"attempt", attempt,
				"cost_cents", gen.CostCents,
				"provider", gen.Provider)
			return gen, nil

		case errors.Is(err, ErrInvalidResponse):
			f.Metrics.attempt(outcomeSuccess)
			f.Metrics.fetch(resultInvalid, attempt, time.Since(start).Seconds())
			return Generation{}, err

		case ctx.Err() != nil:
			f.Metrics.attempt(outcomeTransportError)
			f.Metrics.fetch(resultCanceled, attempt, time.Since(start).Seconds())
			return Generation{}, fmt.Errorf("%w after %d attempts: %w", ErrMetadataCanceled, attempt, ctx.Err())
		}

		if status == 0 {
			f.Metrics.attempt(outcomeTransportError)
		} else {
			f.Metrics.attempt(outcomeHTTPError)
		}
		lastStatus, lastBody = status, body
		logger.Debug("metadata attempt failed",
			"generation_id", generationID,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"status", status,
			"error", err)
	}

	f.Metrics.fetch(resultExhausted, maxAttempts, time.Since(start).Seconds())
	logger.Warn("metadata fetch exhausted",
		"generation_id", generationID,
		"attempts", maxAttempts,
		"last_status", lastStatus)
	return Generation{}, &ExhaustedError{Attempts: maxAttempts, LastStatus: lastStatus, LastBody: lastBody}
}

// fetchOnce performs one request. A nil error means success; otherwise
// status and body describe the failure (status 0 for transport errors).
func (f *Fetcher) fetchOnce(ctx context.Context, endpoint, apiKey string) (Generation, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Generation{}, 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return Generation{}, 0, "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Generation{}, 0, "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Generation{}, resp.StatusCode, truncate(string(body), maxLastBodyBytes),
			fmt.Errorf("accounting endpoint returned status %d", resp.StatusCode)
	}

	var parsed generationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Generation{}, resp.StatusCode, "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return Generation{
		CostCents:    CostCents(parsed.Data.TotalCost),
		Provider:     parsed.Data.ProviderName,
		InputTokens:  parsed.Data.TokensPrompt,
		OutputTokens: parsed.Data.TokensCompletion,
	}, resp.StatusCode, "", nil
}

// CostCents converts a fractional currency amount to hundredths, rounded
// to 6 decimal places. 0.03 becomes exactly 3.
func CostCents(totalCost float64) float64 {
	return math.Round(totalCost*100*1e6) / 1e6
}

func (f *Fetcher) endpoint(generationID string) string {
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/generation?id=" + url.QueryEscape(generationID)
}

func (f *Fetcher) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: DefaultRequestTimeout}
}

func (f *Fetcher) maxAttempts() int {
	if f.MaxAttempts > 0 {
		return f.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (f *Fetcher) retryDelay() time.Duration {
	if f.RetryDelay > 0 {
		return f.RetryDelay
	}
	return DefaultRetryDelay
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
