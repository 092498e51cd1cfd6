// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package feature

import (
	"math"
	"testing"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorProject(t *testing.T) {
	v := Vector{Names: []string{"a", "b", "c"}, Values: []float64{1, 2, 3}}

	p, err := v.Project([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, p.Names)
	assert.Equal(t, []float64{3, 1}, p.Values)

	_, err = v.Project([]string{"nope"})
	assert.Error(t, err)
}

func TestVectorExtendDoesNotAlias(t *testing.T) {
	v := Vector{Names: []string{"a"}, Values: []float64{1}}
	e := v.Extend("b", 2)

	assert.Equal(t, []string{"a", "b"}, e.Names)
	assert.Equal(t, []float64{1, 2}, e.Values)
	assert.Equal(t, []string{"a"}, v.Names, "original must be unchanged")
}

func TestProjectAll(t *testing.T) {
	set := []Labeled{
		{Vector: Vector{Names: []string{"a", "b"}, Values: []float64{1, 2}}, Label: "W"},
		{Vector: Vector{Names: []string{"a", "b"}, Values: []float64{3, 4}}, Label: "R"},
	}
	out, err := ProjectAll(set, []string{"b"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float64{2}, out[0].Values)
	assert.Equal(t, "R", out[1].Label)
}

func TestStatExtractorKnownValues(t *testing.T) {
	seg := signal.Segment{
		Label:   "W",
		Rate:    10,
		Samples: []float64{1, -1, 1, -1, 1, -1, 1, -1},
	}
	v, err := StatExtractor{}.Extract(seg)
	require.NoError(t, err)
	require.Equal(t, StatNames, v.Names)

	mean, _ := v.Value("mean")
	assert.InDelta(t, 0.0, mean, 1e-12)

	minV, _ := v.Value("min")
	maxV, _ := v.Value("max")
	assert.Equal(t, -1.0, minV)
	assert.Equal(t, 1.0, maxV)

	// The alternating signal crosses its mean at every step.
	zcr, _ := v.Value("zcr")
	assert.InDelta(t, 1.0, zcr, 1e-12)

	activity, _ := v.Value("activity")
	assert.InDelta(t, 8.0/7.0, activity, 1e-12)
}

func TestStatExtractorFiniteOnConstantSignal(t *testing.T) {
	seg := signal.Segment{Label: "2", Samples: []float64{5, 5, 5, 5, 5}}
	v, err := StatExtractor{}.Extract(seg)
	require.NoError(t, err)
	for i, val := range v.Values {
		assert.False(t, math.IsNaN(val) || math.IsInf(val, 0),
			"feature %s must be finite", v.Names[i])
	}
}

func TestStatExtractorEmptySegment(t *testing.T) {
	_, err := StatExtractor{}.Extract(signal.Segment{})
	assert.ErrorIs(t, err, ErrEmptySegment)
}

func TestExtractAllPreservesLabels(t *testing.T) {
	segs := []signal.Segment{
		{Label: "W", Samples: []float64{1, 2, 3, 4}},
		{Label: "R", Samples: []float64{4, 3, 2, 1}},
	}
	set, err := ExtractAll(StatExtractor{}, segs)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "W", set[0].Label)
	assert.Equal(t, "R", set[1].Label)
	assert.Equal(t, StatNames, Names(set))
}
