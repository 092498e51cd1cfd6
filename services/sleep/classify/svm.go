// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"gonum.org/v1/gonum/floats"
)

// SVM is the built-in trainer: a one-vs-rest linear SVM fitted by
// full-batch subgradient descent on the regularized hinge loss.
//
// Full-batch descent keeps training deterministic: no sampling, so the
// same training set always yields the same model. Inputs are
// standardized per feature before fitting; the scaling is baked into
// the returned model.
//
// Thread Safety: Safe for concurrent use.
type SVM struct {
	// Epochs is the number of gradient passes. Default 200.
	Epochs int

	// Lambda is the L2 regularization strength. Default 0.01.
	Lambda float64
}

// NewSVM returns a trainer with default hyperparameters.
func NewSVM() *SVM {
	return &SVM{Epochs: 200, Lambda: 0.01}
}

// Train fits one binary hinge-loss classifier per label.
//
// Inputs:
//
//	set - Labeled training vectors. Must be non-empty.
//	kernel - Kernel spec. Only KernelLinear is supported here.
//
// Outputs:
//
//	Model - The trained model.
//	error - ErrUnknownKernel or ErrEmptyTrainingSet on bad input.
func (t *SVM) Train(set []feature.Labeled, kernel Kernel) (Model, error) {
	if kernel != KernelLinear {
		return nil, fmt.Errorf("%w %q: built-in trainer supports %q", ErrUnknownKernel, kernel, KernelLinear)
	}
	if len(set) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	names := feature.Names(set)
	d := len(names)

	// Standardize features; constant features get unit scale.
	mean := make([]float64, d)
	scale := make([]float64, d)
	for j := 0; j < d; j++ {
		var sum float64
		for _, l := range set {
			sum += l.Values[j]
		}
		mean[j] = sum / float64(len(set))
		var sq float64
		for _, l := range set {
			diff := l.Values[j] - mean[j]
			sq += diff * diff
		}
		scale[j] = math.Sqrt(sq / float64(len(set)))
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	x := make([][]float64, len(set))
	for i, l := range set {
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = (l.Values[j] - mean[j]) / scale[j]
		}
		x[i] = row
	}

	classSet := map[string]struct{}{}
	for _, l := range set {
		classSet[l.Label] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	epochs := t.Epochs
	if epochs <= 0 {
		epochs = 200
	}
	lambda := t.Lambda
	if lambda <= 0 {
		lambda = 0.01
	}

	model := &linearModel{
		names:   slices.Clone(names),
		classes: classes,
		mean:    mean,
		scale:   scale,
		weights: make([][]float64, len(classes)),
		bias:    make([]float64, len(classes)),
	}

	for ci, class := range classes {
		y := make([]float64, len(set))
		for i, l := range set {
			if l.Label == class {
				y[i] = 1
			} else {
				y[i] = -1
			}
		}
		model.weights[ci], model.bias[ci] = fitHinge(x, y, epochs, lambda)
	}
	return model, nil
}

// fitHinge runs full-batch subgradient descent on
// lambda/2 ||w||^2 + mean(max(0, 1 - y (w.x + b))).
func fitHinge(x [][]float64, y []float64, epochs int, lambda float64) ([]float64, float64) {
	n := len(x)
	d := len(x[0])
	w := make([]float64, d)
	grad := make([]float64, d)
	var b float64

	for epoch := 1; epoch <= epochs; epoch++ {
		for j := range grad {
			grad[j] = lambda * w[j]
		}
		var gradB float64
		for i := 0; i < n; i++ {
			margin := y[i] * (floats.Dot(w, x[i]) + b)
			if margin < 1 {
				for j := 0; j < d; j++ {
					grad[j] -= y[i] * x[i][j] / float64(n)
				}
				gradB -= y[i] / float64(n)
			}
		}
		eta := 1.0 / (lambda * float64(epoch+10))
		floats.AddScaled(w, -eta, grad)
		b -= eta * gradB
	}
	return w, b
}

// linearModel is a set of one-vs-rest hyperplanes over standardized
// features. Prediction takes the class with the largest decision value.
type linearModel struct {
	names   []string
	classes []string
	mean    []float64
	scale   []float64
	weights [][]float64
	bias    []float64
}

func (m *linearModel) Features() []string {
	return slices.Clone(m.names)
}

func (m *linearModel) Predict(vs []feature.Vector) ([]string, error) {
	out := make([]string, len(vs))
	row := make([]float64, len(m.names))
	for i, v := range vs {
		if !slices.Equal(v.Names, m.names) {
			return nil, fmt.Errorf("%w: got %v, trained on %v", ErrFeatureMismatch, v.Names, m.names)
		}
		for j := range row {
			row[j] = (v.Values[j] - m.mean[j]) / m.scale[j]
		}
		best := 0
		bestScore := math.Inf(-1)
		for ci := range m.classes {
			score := floats.Dot(m.weights[ci], row) + m.bias[ci]
			if score > bestScore {
				bestScore = score
				best = ci
			}
		}
		out[i] = m.classes[best]
	}
	return out, nil
}
