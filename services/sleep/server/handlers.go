// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the sleep-scoring pipeline over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/pipeline"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/telemetry"
)

// ServiceVersion is the sleep-scoring service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the sleep service.
type Handlers struct {
	catalog *signal.Catalog
	loader  pipeline.Loader
	metrics *telemetry.Metrics
	options []pipeline.Option
}

// NewHandlers creates handlers over a record catalog and loader.
//
// Description:
//
//	Each run builds a fresh engine, so concurrent requests never share
//	a random source. The extra options are appended after the
//	per-request seed and loader, letting tests swap collaborators.
func NewHandlers(catalog *signal.Catalog, loader pipeline.Loader, opts ...pipeline.Option) *Handlers {
	return &Handlers{catalog: catalog, loader: loader, options: opts}
}

// WithMetrics sets the Prometheus observer attached to every run.
func (h *Handlers) WithMetrics(m *telemetry.Metrics) *Handlers {
	h.metrics = m
	return h
}

// HandleRun handles POST /v1/sleep/pipeline/run.
//
// Description:
//
//	Executes a pipeline command and summarizes the final stream.
//
// Request Body:
//
//	RunRequest
//
// Response:
//
//	200 OK: RunResponse
//	400 Bad Request: Malformed body or command
//	404 Not Found: No catalog record matches the load spec
//	500 Internal Server Error: Stage execution failure
func (h *Handlers) HandleRun(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRun")

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	opts := append([]pipeline.Option{
		pipeline.WithLoader(h.loader),
		pipeline.WithSeed(seed),
		pipeline.WithLogger(logger),
	}, h.options...)
	if h.metrics != nil {
		opts = append(opts, pipeline.WithObserver(h.metrics))
	}
	engine := pipeline.New(opts...)

	logger.Info("Running pipeline", "command", req.Command, "seed", seed)
	stream, err := engine.Run(c.Request.Context(), req.Command)
	if err != nil {
		h.countRun("error")
		status, code := classifyRunError(err)
		logger.Warn("Pipeline failed", "error", err, "code", code)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	h.countRun("ok")

	resp := summarize(stream)
	resp.RunID = requestID
	resp.Seed = seed
	c.JSON(http.StatusOK, resp)
}

// HandleRecords handles GET /v1/sleep/records.
func (h *Handlers) HandleRecords(c *gin.Context) {
	c.JSON(http.StatusOK, RecordsResponse{Records: h.catalog.Names()})
}

// HandleHealth handles GET /v1/sleep/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

func (h *Handlers) countRun(status string) {
	if h.metrics != nil {
		h.metrics.IncRuns(status)
	}
}

// classifyRunError maps pipeline failures to HTTP status codes.
func classifyRunError(err error) (int, string) {
	switch {
	case errors.Is(err, signal.ErrNoRecord):
		return http.StatusNotFound, "RECORD_NOT_FOUND"
	case errors.Is(err, pipeline.ErrEmptyCommand),
		errors.Is(err, pipeline.ErrUnknownStage),
		errors.Is(err, pipeline.ErrShape),
		errors.Is(err, pipeline.ErrBadRatio),
		errors.Is(err, pipeline.ErrBadFoldCount),
		errors.Is(err, pipeline.ErrUnknownFamily):
		return http.StatusBadRequest, "INVALID_COMMAND"
	default:
		return http.StatusInternalServerError, "RUN_FAILED"
	}
}

// summarize flattens the final stream into wire form.
func summarize(stream pipeline.Stream) RunResponse {
	resp := RunResponse{Shape: stream.Shape()}
	switch s := stream.(type) {
	case pipeline.VectorStream:
		resp.Vectors = len(s)
		for _, l := range s {
			resp.Labels = append(resp.Labels, l.Label)
		}
	case pipeline.SegmentStream:
		for _, seg := range s {
			resp.Labels = append(resp.Labels, seg.Label)
		}
	case pipeline.ResultStream:
		summary := summarizeResult(s.Result)
		resp.Result = &summary
	case pipeline.SelectionStream:
		for _, res := range s.Results {
			resp.Selection = append(resp.Selection, summarizeResult(res))
		}
	}
	return resp
}

func summarizeResult(r *pipeline.Result) ResultSummary {
	out := ResultSummary{
		Phase:          r.Phase.String(),
		Kernel:         string(r.Kernel),
		Accuracy:       r.Accuracy,
		TrainingSize:   len(r.Training),
		TestingSize:    len(r.Testing),
		Subset:         r.Subset,
		Generation:     r.Generation,
		ConfusionOrder: r.ConfusionOrder,
		Confusion:      r.Confusion,
	}
	if r.Validation != nil {
		acc := r.Validation.Accuracy
		out.Validation = &acc
	}
	return out
}

// getOrCreateRequestID gets or creates a request ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
