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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes.
const (
	outcomeSuccess        = "success"
	outcomeHTTPError      = "http_error"
	outcomeTransportError = "transport_error"
)

// Fetch results.
const (
	resultSuccess   = "success"
	resultSkipped   = "skipped"
	resultExhausted = "exhausted"
	resultCanceled  = "canceled"
	resultInvalid   = "invalid"
)

// Metrics holds the Prometheus metrics for the fetcher.
//
// A nil *Metrics is valid and records nothing.
//
// Thread Safety: Safe for concurrent use (Prometheus metrics are thread-safe).
type Metrics struct {
	// AttemptsTotal counts individual requests by outcome.
	AttemptsTotal *prometheus.CounterVec

	// FetchesTotal counts Fetch calls by result.
	FetchesTotal *prometheus.CounterVec

	// FetchDurationSeconds measures Fetch calls end to end, waits included.
	FetchDurationSeconds prometheus.Histogram

	// AttemptsPerFetch records how many requests each completed Fetch needed.
	AttemptsPerFetch prometheus.Histogram
}

// NewMetrics creates the fetcher metrics and registers them on reg.
//
// A nil reg creates unregistered metrics, which is what tests want.
// Registering twice on the same registerer panics, as with promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "editcode",
				Subsystem: "metadata",
				Name:      "attempts_total",
				Help:      "Accounting endpoint requests by outcome",
			},
			[]string{"outcome"},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "editcode",
				Subsystem: "metadata",
				Name:      "fetches_total",
				Help:      "Metadata fetches by result",
			},
			[]string{"result"},
		),
		FetchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "editcode",
				Subsystem: "metadata",
				Name:      "fetch_duration_seconds",
				Help:      "Metadata fetch duration including retry waits",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
		),
		AttemptsPerFetch: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "editcode",
				Subsystem: "metadata",
				Name:      "attempts_per_fetch",
				Help:      "Requests needed per metadata fetch",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),
	}
}

func (m *Metrics) attempt(outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) fetch(result string, attempts int, seconds float64) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	if result == resultSkipped {
		return
	}
	m.FetchDurationSeconds.Observe(seconds)
	m.AttemptsPerFetch.Observe(float64(attempts))
}
