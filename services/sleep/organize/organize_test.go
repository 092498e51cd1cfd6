// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package organize

import (
	"math/rand"
	"testing"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterSet() []feature.Labeled {
	names := []string{"x", "y"}
	points := [][]float64{
		{0, 0}, {0.1, 0.1}, {-0.1, 0.1},
		{10, 10}, {10.1, 9.9}, {9.9, 10.1},
	}
	set := make([]feature.Labeled, len(points))
	for i, p := range points {
		set[i] = feature.Labeled{
			Vector: feature.Vector{Names: names, Values: p},
			Label:  "W",
		}
	}
	return set
}

func TestClusterAppendsFeature(t *testing.T) {
	set := clusterSet()
	out, err := Cluster(set, 2, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, out, len(set))

	for _, l := range out {
		id, ok := l.Value(ClusterFeature)
		require.True(t, ok)
		assert.Contains(t, []float64{1, 2}, id)
	}
	// Input is untouched.
	assert.Len(t, set[0].Names, 2)
}

func TestClusterSeparatesObviousClusters(t *testing.T) {
	out, err := Cluster(clusterSet(), 2, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	firstID, _ := out[0].Value(ClusterFeature)
	secondID, _ := out[3].Value(ClusterFeature)
	assert.NotEqual(t, firstID, secondID)

	// Points within one blob share an id.
	for i := 1; i < 3; i++ {
		id, _ := out[i].Value(ClusterFeature)
		assert.Equal(t, firstID, id)
	}
	for i := 4; i < 6; i++ {
		id, _ := out[i].Value(ClusterFeature)
		assert.Equal(t, secondID, id)
	}
}

func TestClusterBadK(t *testing.T) {
	set := clusterSet()
	rng := rand.New(rand.NewSource(1))

	_, err := Cluster(set, 0, rng)
	assert.ErrorIs(t, err, ErrBadK)
	_, err = Cluster(set, len(set)+1, rng)
	assert.ErrorIs(t, err, ErrBadK)
}

func TestRandomProjectionAppendsDerivedFeatures(t *testing.T) {
	set := clusterSet()
	red := NewRandomProjection(rand.New(rand.NewSource(11)))

	out, err := red.Reduce(set, []int{4, 3})
	require.NoError(t, err)
	require.Len(t, out, len(set))

	names := feature.Names(out)
	assert.Equal(t, []string{"x", "y", "dbn1", "dbn2", "dbn3"}, names)
	for _, l := range out {
		for i := 2; i < 5; i++ {
			assert.LessOrEqual(t, l.Values[i], 1.0)
			assert.GreaterOrEqual(t, l.Values[i], -1.0)
		}
	}
}

func TestRandomProjectionDeterministicPerSeed(t *testing.T) {
	set := clusterSet()
	a, err := NewRandomProjection(rand.New(rand.NewSource(5))).Reduce(set, []int{3})
	require.NoError(t, err)
	b, err := NewRandomProjection(rand.New(rand.NewSource(5))).Reduce(set, []int{3})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRandomProjectionBadLayers(t *testing.T) {
	red := NewRandomProjection(rand.New(rand.NewSource(1)))
	_, err := red.Reduce(clusterSet(), nil)
	assert.ErrorIs(t, err, ErrBadLayers)
	_, err = red.Reduce(clusterSet(), []int{2, 0})
	assert.ErrorIs(t, err, ErrBadLayers)
}
