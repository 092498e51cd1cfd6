// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

// RunRequest is the request body for POST /v1/sleep/pipeline/run.
type RunRequest struct {
	// Command is the pipe-delimited pipeline command.
	Command string `json:"command" binding:"required"`

	// Seed fixes the engine's random source. Omitted means a
	// clock-derived seed, echoed back for reproducibility.
	Seed *int64 `json:"seed,omitempty"`
}

// ResultSummary is the wire form of one classifier result.
type ResultSummary struct {
	Phase          string   `json:"phase"`
	Kernel         string   `json:"kernel,omitempty"`
	Accuracy       float64  `json:"accuracy"`
	TrainingSize   int      `json:"training_size"`
	TestingSize    int      `json:"testing_size"`
	Subset         []string `json:"subset,omitempty"`
	Generation     int      `json:"generation,omitempty"`
	ConfusionOrder []string `json:"confusion_order,omitempty"`
	Confusion      [][]int  `json:"confusion,omitempty"`
	Validation     *float64 `json:"validation_accuracy,omitempty"`
}

// RunResponse is the response body for POST /v1/sleep/pipeline/run.
type RunResponse struct {
	// RunID identifies this run in logs and metrics.
	RunID string `json:"run_id"`

	// Seed is the seed the run actually used.
	Seed int64 `json:"seed"`

	// Shape is the final stream shape.
	Shape string `json:"shape"`

	// Result is set when the pipeline ends in a single result.
	Result *ResultSummary `json:"result,omitempty"`

	// Selection is set when the pipeline ends in a selection search.
	Selection []ResultSummary `json:"selection,omitempty"`

	// Vectors is the sequence length when the pipeline ends in
	// labeled feature vectors.
	Vectors int `json:"vectors,omitempty"`

	// Labels is the label sequence when the pipeline ends in vectors
	// or segments.
	Labels []string `json:"labels,omitempty"`
}

// RecordsResponse lists the catalogued recordings.
type RecordsResponse struct {
	Records []string `json:"records"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
