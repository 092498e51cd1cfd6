// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify defines the classifier boundary the pipeline calls
// through, plus a built-in linear SVM so the tool works out of the box.
//
// The pipeline treats training and prediction as black boxes: a Trainer
// turns a labeled set and a kernel spec into a Model, and a Model maps
// feature vectors to predicted labels, one per input, in input order.
// External SVM implementations plug in by satisfying these interfaces.
package classify

import (
	"errors"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
)

// Kernel names a kernel function for the classifier.
type Kernel string

const (
	// KernelLinear is the linear kernel.
	KernelLinear Kernel = "linear"
)

var (
	// ErrUnknownKernel is returned for a kernel the trainer cannot build.
	ErrUnknownKernel = errors.New("unknown kernel")

	// ErrEmptyTrainingSet is returned when training on an empty set.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrFeatureMismatch is returned when prediction inputs do not
	// declare the features the model was trained on.
	ErrFeatureMismatch = errors.New("feature universe mismatch")
)

// Model predicts labels for feature vectors.
type Model interface {
	// Predict returns one predicted label per input vector, in input
	// order. Vectors must declare the same feature universe the model
	// was trained on.
	Predict(vs []feature.Vector) ([]string, error)

	// Features returns the feature names the model was trained on.
	Features() []string
}

// Trainer builds models from labeled training sets.
type Trainer interface {
	Train(set []feature.Labeled, kernel Kernel) (Model, error)
}
