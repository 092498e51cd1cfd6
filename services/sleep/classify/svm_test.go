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
	"testing"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoFeatures = []string{"f1", "f2"}

func labeled(label string, values ...float64) feature.Labeled {
	return feature.Labeled{
		Vector: feature.Vector{Names: twoFeatures, Values: values},
		Label:  label,
	}
}

// separableSet is two well-separated clusters, one per class.
func separableSet() []feature.Labeled {
	return []feature.Labeled{
		labeled("W", 0.0, 0.1),
		labeled("W", 0.2, 0.0),
		labeled("W", 0.1, 0.2),
		labeled("W", -0.1, 0.1),
		labeled("R", 5.0, 5.1),
		labeled("R", 5.2, 4.9),
		labeled("R", 4.9, 5.0),
		labeled("R", 5.1, 5.2),
	}
}

func TestSVMSeparatesClusters(t *testing.T) {
	model, err := NewSVM().Train(separableSet(), KernelLinear)
	require.NoError(t, err)

	preds, err := model.Predict([]feature.Vector{
		{Names: twoFeatures, Values: []float64{0.05, 0.05}},
		{Names: twoFeatures, Values: []float64{5.05, 5.05}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"W", "R"}, preds)
}

func TestSVMDeterministic(t *testing.T) {
	set := separableSet()
	m1, err := NewSVM().Train(set, KernelLinear)
	require.NoError(t, err)
	m2, err := NewSVM().Train(set, KernelLinear)
	require.NoError(t, err)

	probe := []feature.Vector{
		{Names: twoFeatures, Values: []float64{2.5, 2.5}},
		{Names: twoFeatures, Values: []float64{1.0, 4.0}},
	}
	p1, err := m1.Predict(probe)
	require.NoError(t, err)
	p2, err := m2.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestSVMMultiClass(t *testing.T) {
	set := []feature.Labeled{
		labeled("1", 0, 0), labeled("1", 0.1, 0.1), labeled("1", -0.1, 0),
		labeled("2", 10, 0), labeled("2", 10.1, 0.1), labeled("2", 9.9, -0.1),
		labeled("R", 0, 10), labeled("R", 0.1, 10.1), labeled("R", -0.1, 9.9),
	}
	model, err := NewSVM().Train(set, KernelLinear)
	require.NoError(t, err)

	preds, err := model.Predict([]feature.Vector{
		{Names: twoFeatures, Values: []float64{0, 0}},
		{Names: twoFeatures, Values: []float64{10, 0}},
		{Names: twoFeatures, Values: []float64{0, 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "R"}, preds)
}

func TestSVMPredictionCardinality(t *testing.T) {
	model, err := NewSVM().Train(separableSet(), KernelLinear)
	require.NoError(t, err)

	probe := make([]feature.Vector, 7)
	for i := range probe {
		probe[i] = feature.Vector{Names: twoFeatures, Values: []float64{float64(i), float64(i)}}
	}
	preds, err := model.Predict(probe)
	require.NoError(t, err)
	assert.Len(t, preds, len(probe))
}

func TestSVMRejectsBadInput(t *testing.T) {
	_, err := NewSVM().Train(nil, KernelLinear)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	_, err = NewSVM().Train(separableSet(), Kernel("rbf"))
	assert.ErrorIs(t, err, ErrUnknownKernel)

	model, err := NewSVM().Train(separableSet(), KernelLinear)
	require.NoError(t, err)
	_, err = model.Predict([]feature.Vector{{Names: []string{"other"}, Values: []float64{1}}})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestSVMFeatures(t *testing.T) {
	model, err := NewSVM().Train(separableSet(), KernelLinear)
	require.NoError(t, err)
	assert.Equal(t, twoFeatures, model.Features())
}
