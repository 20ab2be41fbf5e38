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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for edit operations.
var (
	tracer = otel.Tracer("aleutian.editcode")
	meter  = otel.Meter("aleutian.editcode")
)

// Metrics for edit operations.
var (
	editLatency    metric.Float64Histogram
	editTotal      metric.Int64Counter
	editOperations metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// Outcome labels for editcode_edit_total.
const (
	outcomeSuccess        = "success"
	outcomeInvalidRequest = "invalid_request"
	outcomeModelError     = "model_error"
	outcomeApplyError     = "apply_error"
	outcomeMetadataError  = "metadata_error"
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		editLatency, err = meter.Float64Histogram(
			"editcode_edit_duration_seconds",
			metric.WithDescription("Duration of edit calls, model round-trip included"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		editTotal, err = meter.Int64Counter(
			"editcode_edit_total",
			metric.WithDescription("Total number of edit calls by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		editOperations, err = meter.Int64Histogram(
			"editcode_edit_operations",
			metric.WithDescription("Number of parsed edit operations per call"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startEditSpan creates a span for an edit call.
func startEditSpan(ctx context.Context, editFormat string, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Editor.Edit",
		trace.WithAttributes(
			attribute.String("editcode.format", editFormat),
			attribute.Int("editcode.files", fileCount),
		),
	)
}

// setEditSpanResult sets the result attributes on an edit span.
func setEditSpanResult(span trace.Span, res *Result, outcome string, err error) {
	span.SetAttributes(attribute.String("editcode.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return
	}
	span.SetAttributes(
		attribute.String("editcode.generation_id", res.GenerationID),
		attribute.Bool("editcode.parse_miss", res.ParseMiss),
		attribute.Int("editcode.changes", len(res.Changes.Changes)),
		attribute.Float64("editcode.cost_cents", res.CostCents),
	)
}

// recordEditMetrics records metrics for an edit call.
func recordEditMetrics(ctx context.Context, duration time.Duration, editFormat, outcome string, operations int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("format", editFormat),
		attribute.String("outcome", outcome),
	)

	editLatency.Record(ctx, duration.Seconds(), attrs)
	editTotal.Add(ctx, 1, attrs)
	if operations >= 0 {
		editOperations.Record(ctx, int64(operations), metric.WithAttributes(attribute.String("format", editFormat)))
	}
}
