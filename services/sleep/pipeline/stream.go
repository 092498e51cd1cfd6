// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline implements the command-driven transformation
// pipeline: a pipe-delimited stage string is parsed into stage
// invocations, and a single stream value is threaded left to right
// through them. Dispatch is by stage name and the runtime shape of the
// stream, modelled here as a closed tagged union.
package pipeline

import (
	"github.com/GEO-IASS/hypnoscorer/services/sleep/classify"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
)

// -----------------------------------------------------------------------------
// Stream shapes
// -----------------------------------------------------------------------------

// Stream is the single evolving value threaded through pipeline stages.
// The set of shapes is closed: every implementation lives in this
// package, so the dispatcher can match exhaustively.
type Stream interface {
	// Shape names the stream shape for error messages.
	Shape() string
}

// SignalStream wraps a loaded recording: the raw signal plus its
// hypnogram annotations.
type SignalStream struct {
	Recording signal.Recording
}

func (SignalStream) Shape() string { return "signal" }

// SegmentStream is an ordered sequence of labeled signal segments.
type SegmentStream []signal.Segment

func (SegmentStream) Shape() string { return "segments" }

// VectorStream is a sequence of labeled feature vectors.
type VectorStream []feature.Labeled

func (VectorStream) Shape() string { return "vectors" }

// Partition is a train/test split of labeled feature vectors.
//
// Invariant: Training and Testing are disjoint and their union (as a
// set) equals the sequence the partition was built from.
type Partition struct {
	Training []feature.Labeled
	Testing  []feature.Labeled
}

// PartitionStream wraps a Partition as a pipeline stream.
type PartitionStream Partition

func (PartitionStream) Shape() string { return "partition" }

// FoldStream is a k-fold set: K partitions where every element appears
// in exactly one testing set.
type FoldStream []Partition

func (FoldStream) Shape() string { return "folds" }

// ResultStream wraps a single classifier result.
type ResultStream struct {
	Result *Result
}

func (ResultStream) Shape() string { return "result" }

// SelectionStream is the output of a feature-selection search: one
// result per evaluated candidate, plus the outer partition the search
// ran inside so finalization can score against the held-out test set.
type SelectionStream struct {
	// Outer is the partition the search stage received. Its training
	// set fed cross-validation; its testing set stays held out until
	// finalization.
	Outer Partition

	// Results are the candidate results in enumeration (or generation)
	// order, or sorted by accuracy descending once finalized.
	Results []*Result

	// Finalized is true after eval has re-scored the candidates
	// against the held-out test set.
	Finalized bool
}

func (SelectionStream) Shape() string { return "selection" }

// -----------------------------------------------------------------------------
// Classifier results
// -----------------------------------------------------------------------------

// Phase tracks how far a Result has progressed through the pipeline.
type Phase int

const (
	// PhaseTrained: svm has attached a model; no predictions yet.
	PhaseTrained Phase = iota + 1

	// PhaseEvaluated: eval has attached predictions, accuracy, and the
	// confusion matrix.
	PhaseEvaluated

	// PhaseFinalized: a selection result re-scored against the
	// held-out test set, with validation-phase fields preserved.
	PhaseFinalized
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseTrained:
		return "trained"
	case PhaseEvaluated:
		return "evaluated"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Result is a classifier result, built incrementally: svm sets Model,
// eval adds Predicted/Accuracy/Confusion, finalization moves the
// evaluation-phase values into Validation and writes fresh ones.
type Result struct {
	Phase Phase

	// Training and Testing are the sets the model was fitted on and
	// will be (or was) scored against.
	Training []feature.Labeled
	Testing  []feature.Labeled

	// Kernel is the kernel spec the model was trained with.
	Kernel classify.Kernel

	// Model is the trained classifier.
	Model classify.Model

	// Predicted holds one predicted label per Testing element.
	Predicted []string

	// Accuracy is 1 - mismatches/total over Testing.
	Accuracy float64

	// Confusion is the confusion matrix indexed by ConfusionOrder:
	// Confusion[i][j] counts elements with true label ConfusionOrder[i]
	// predicted as ConfusionOrder[j].
	Confusion      [][]int
	ConfusionOrder []string

	// Subset is the feature subset this result was scored on, set by
	// the selection searches.
	Subset []string

	// Generation is the 1-based generation a genetic-search result
	// came from; zero otherwise.
	Generation int

	// Validation preserves the cross-validation-phase result after
	// finalization.
	Validation *Validation
}

// Validation is a snapshot of the evaluation-phase fields of a Result,
// preserved when a selection result is finalized against the held-out
// test set.
type Validation struct {
	Training       []feature.Labeled
	Testing        []feature.Labeled
	Predicted      []string
	Accuracy       float64
	Confusion      [][]int
	ConfusionOrder []string
}

// snapshot captures the evaluation-phase fields of r.
func (r *Result) snapshot() *Validation {
	return &Validation{
		Training:       r.Training,
		Testing:        r.Testing,
		Predicted:      r.Predicted,
		Accuracy:       r.Accuracy,
		Confusion:      r.Confusion,
		ConfusionOrder: r.ConfusionOrder,
	}
}
