//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package telemetry provides the metric instruments for quizcore. The host
// process installs a real meter provider; without one the instruments are
// no-ops.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/quizforge/quizcore/log"
)

// MeterName identifies the quizcore instrumentation scope.
const MeterName = "github.com/quizforge/quizcore"

var (
	// ProviderRequests counts AI provider calls by provider and outcome.
	ProviderRequests metric.Int64Counter
	// ProviderLatency records AI provider call latency in seconds.
	ProviderLatency metric.Float64Histogram
	// ProviderFailovers counts primary-to-fallback switches.
	ProviderFailovers metric.Int64Counter
	// SubmissionsCompleted counts durably persisted submissions.
	SubmissionsCompleted metric.Int64Counter
	// ProjectorConflicts counts optimistic-concurrency losses on the
	// performance history.
	ProjectorConflicts metric.Int64Counter
)

func init() {
	meter := otel.Meter(MeterName)
	var err error
	if ProviderRequests, err = meter.Int64Counter(
		"quizcore.provider.requests",
		metric.WithDescription("Total number of AI provider calls"),
		metric.WithUnit("1"),
	); err != nil {
		log.Errorf("create provider request counter: %v", err)
	}
	if ProviderLatency, err = meter.Float64Histogram(
		"quizcore.provider.latency",
		metric.WithDescription("AI provider call latency"),
		metric.WithUnit("s"),
	); err != nil {
		log.Errorf("create provider latency histogram: %v", err)
	}
	if ProviderFailovers, err = meter.Int64Counter(
		"quizcore.provider.failovers",
		metric.WithDescription("Primary provider failures that fell back"),
		metric.WithUnit("1"),
	); err != nil {
		log.Errorf("create provider failover counter: %v", err)
	}
	if SubmissionsCompleted, err = meter.Int64Counter(
		"quizcore.submissions.completed",
		metric.WithDescription("Durably persisted submissions"),
		metric.WithUnit("1"),
	); err != nil {
		log.Errorf("create submission counter: %v", err)
	}
	if ProjectorConflicts, err = meter.Int64Counter(
		"quizcore.projector.conflicts",
		metric.WithDescription("Performance projection optimistic-concurrency losses"),
		metric.WithUnit("1"),
	); err != nil {
		log.Errorf("create projector conflict counter: %v", err)
	}
}

// RecordProviderCall records one provider call outcome.
func RecordProviderCall(ctx context.Context, provider, operation, outcome string, latencySeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	if ProviderRequests != nil {
		ProviderRequests.Add(ctx, 1, attrs)
	}
	if ProviderLatency != nil {
		ProviderLatency.Record(ctx, latencySeconds, attrs)
	}
}
