// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides Prometheus metrics for the sleep-scoring
// pipeline. All metrics use the "hypnoscorer" namespace.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the pre-defined pipeline metrics.
//
// Description:
//
//	Provides counters and histograms for pipeline stage execution,
//	classifier trainings, and feature-search candidate evaluations.
//	Satisfies the pipeline's Observer boundary.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// StageDuration records per-stage execution duration in seconds.
	// Labels: stage (the stage name).
	StageDuration *prometheus.HistogramVec

	// RunsTotal counts pipeline runs by outcome. Labels: status
	// (ok, error).
	RunsTotal *prometheus.CounterVec

	// TrainingsTotal counts classifier training calls.
	TrainingsTotal prometheus.Counter

	// SearchEvaluationsTotal counts feature-subset candidate
	// evaluations across both search strategies.
	SearchEvaluationsTotal prometheus.Counter
}

// NewMetrics creates a Metrics instance registered against reg.
//
// Inputs:
//
//	reg - The Prometheus registerer to register with. Tests pass a
//	      fresh registry; the server passes the default one.
//
// Outputs:
//
//	*Metrics - The metrics instance with all collectors registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hypnoscorer",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"stage"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hypnoscorer",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by outcome",
		}, []string{"status"}),
		TrainingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hypnoscorer",
			Subsystem: "pipeline",
			Name:      "trainings_total",
			Help:      "Total classifier training calls",
		}),
		SearchEvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hypnoscorer",
			Subsystem: "pipeline",
			Name:      "search_evaluations_total",
			Help:      "Total feature-subset candidate evaluations",
		}),
	}
}

// ObserveStage records one stage execution.
func (m *Metrics) ObserveStage(name string, d time.Duration) {
	m.StageDuration.WithLabelValues(name).Observe(d.Seconds())
}

// IncTrainings counts one classifier training call.
func (m *Metrics) IncTrainings() {
	m.TrainingsTotal.Inc()
}

// IncSearchEvaluations counts one search candidate evaluation.
func (m *Metrics) IncSearchEvaluations() {
	m.SearchEvaluationsTotal.Inc()
}

// IncRuns counts one pipeline run with the given outcome.
func (m *Metrics) IncRuns(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}
