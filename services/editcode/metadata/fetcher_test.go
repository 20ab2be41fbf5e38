// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"data":{"total_cost":0.05,"provider_name":"test-provider","tokens_prompt":200,"tokens_completion":100}}`

// accountingServer fails the first failures requests with 404 and then
// answers okBody. It counts every request.
func accountingServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= failures {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, "Not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, okBody)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  time.Millisecond,
	}
}

// TestFetch_Success verifies the request shape and the parsed record.
func TestFetch_Success(t *testing.T) {
	var gotPath, gotID, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.URL.Query().Get("id")
		gotAuth = r.Header.Get("Authorization")
		_, _ = fmt.Fprint(w, okBody)
	}))
	defer srv.Close()

	gen, err := testFetcher(srv.URL).Fetch(context.Background(), "test-id", "test-key")
	require.NoError(t, err)

	assert.Equal(t, "/generation", gotPath)
	assert.Equal(t, "test-id", gotID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, Generation{CostCents: 5, Provider: "test-provider", InputTokens: 200, OutputTokens: 100}, gen)
}

// TestFetch_SucceedsOnLastAttempt verifies nine failures then a success
// makes exactly ten requests.
func TestFetch_SucceedsOnLastAttempt(t *testing.T) {
	srv, calls := accountingServer(t, 9)

	gen, err := testFetcher(srv.URL).Fetch(context.Background(), "gen-1", "key")
	require.NoError(t, err)
	assert.Equal(t, int32(10), calls.Load())
	assert.Equal(t, "test-provider", gen.Provider)
}

// TestFetch_Exhausted verifies ten failures stop after exactly ten requests.
func TestFetch_Exhausted(t *testing.T) {
	srv, calls := accountingServer(t, 1000)

	_, err := testFetcher(srv.URL).Fetch(context.Background(), "gen-1", "key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMetadataExhausted)
	assert.Equal(t, int32(10), calls.Load())

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, 10, ex.Attempts)
	assert.Equal(t, http.StatusNotFound, ex.LastStatus)
	assert.Equal(t, "Not found", ex.LastBody)
	assert.Equal(t, "metadata fetch exhausted: status 404 after 10 attempts", err.Error())
}

func TestFetch_RetryRecovers(t *testing.T) {
	srv, calls := accountingServer(t, 1)

	gen, err := testFetcher(srv.URL).Fetch(context.Background(), "gen-1", "key")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 5.0, gen.CostCents)
}

// TestFetch_Skipped verifies no request is made without an id or a key.
func TestFetch_Skipped(t *testing.T) {
	srv, calls := accountingServer(t, 0)
	f := testFetcher(srv.URL)

	for _, tc := range []struct{ id, key string }{{"", "key"}, {"gen", ""}, {"", ""}} {
		gen, err := f.Fetch(context.Background(), tc.id, tc.key)
		require.NoError(t, err)
		assert.True(t, gen.IsZero())
	}
	assert.Equal(t, int32(0), calls.Load())
}

// TestFetch_CanceledDuringWait verifies cancellation aborts the pending wait.
func TestFetch_CanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	f.RetryDelay = time.Hour

	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, "gen-1", "key")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMetadataCanceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), calls.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch did not return after cancellation")
	}
}

func TestFetch_InvalidBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	_, err := testFetcher(srv.URL).Fetch(context.Background(), "gen-1", "key")
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, int32(1), calls.Load(), "decode failures are not retried")
}

// TestFetch_TransportErrors verifies connection failures count as attempts.
func TestFetch_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := testFetcher(url)
	f.MaxAttempts = 3

	_, err := f.Fetch(context.Background(), "gen-1", "key")
	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, 3, ex.Attempts)
	assert.Equal(t, 0, ex.LastStatus)
}

func TestCostCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.05, 5},
		{0.03, 3},
		{0.1 + 0.2, 30},
		{0.0012345, 0.12345},
		{1.23456789, 123.456789},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CostCents(tt.in), "CostCents(%v)", tt.in)
	}
}

func TestFetcher_Defaults(t *testing.T) {
	f := &Fetcher{}
	assert.Equal(t, DefaultMaxAttempts, f.maxAttempts())
	assert.Equal(t, DefaultRetryDelay, f.retryDelay())
	assert.Equal(t, DefaultBaseURL+"/generation?id=a%2Fb", f.endpoint("a/b"))

	nf := NewFetcher()
	assert.Equal(t, DefaultBaseURL, nf.BaseURL)
	assert.Equal(t, DefaultMaxAttempts, nf.MaxAttempts)
	assert.Equal(t, time.Second, nf.RetryDelay)
}

// TestFetch_Metrics verifies attempt and result counters.
func TestFetch_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	srv, _ := accountingServer(t, 2)
	f := testFetcher(srv.URL)
	f.Metrics = m

	_, err := f.Fetch(context.Background(), "gen-1", "key")
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "", "key")
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(outcomeHTTPError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(resultSkipped)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil)
		NewMetrics(nil)
	})
	var m *Metrics
	assert.NotPanics(t, func() { m.attempt(outcomeSuccess) })
}
