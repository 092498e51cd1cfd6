// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package organize holds the feature-space reorganization collaborators
// the pipeline calls through: a k-means clusterer that appends a
// cluster-id feature, and a layered reducer satisfying the DBN
// reduce(featureSpace, layerSizes) contract.
package organize

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"gonum.org/v1/gonum/floats"
)

// ClusterFeature is the name of the feature appended by Cluster.
const ClusterFeature = "cluster"

// ErrBadK is returned for a cluster count outside [1, len(set)].
var ErrBadK = errors.New("cluster count out of range")

// maxKMeansIterations bounds Lloyd iterations; k-means on segment
// features converges in far fewer on real recordings.
const maxKMeansIterations = 100

// Cluster runs k-means and appends the assigned cluster id as a new
// feature on every vector.
//
// Description:
//
//	Standard Lloyd iterations with centroids initialized from k
//	distinct vectors chosen by the injected RNG. Cluster ids are in
//	[1, k]. The input set is not mutated.
//
// Inputs:
//
//	set - Labeled vectors sharing one feature universe. Must be non-empty.
//	k - Number of clusters, 1 <= k <= len(set).
//	rng - Source of randomness for centroid initialization.
//
// Outputs:
//
//	[]feature.Labeled - New vectors with a "cluster" feature appended.
//	error - ErrBadK on an out-of-range k.
func Cluster(set []feature.Labeled, k int, rng *rand.Rand) ([]feature.Labeled, error) {
	if k < 1 || k > len(set) {
		return nil, fmt.Errorf("%w: k=%d with %d vectors", ErrBadK, k, len(set))
	}
	d := len(feature.Names(set))

	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(set))[:k] {
		centroids[i] = append([]float64(nil), set[idx].Values...)
	}

	assign := make([]int, len(set))
	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, l := range set {
			best, bestDist := 0, math.Inf(1)
			for c, cent := range centroids {
				dist := floats.Distance(l.Values, cent, 2)
				if dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, d)
		}
		for i, l := range set {
			counts[assign[i]]++
			floats.Add(sums[assign[i]], l.Values)
		}
		for c := range centroids {
			// Empty clusters keep their previous centroid.
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), sums[c])
				centroids[c] = sums[c]
			}
		}
	}

	out := make([]feature.Labeled, len(set))
	for i, l := range set {
		out[i] = feature.Labeled{
			Vector: l.Vector.Extend(ClusterFeature, float64(assign[i]+1)),
			Label:  l.Label,
		}
	}
	return out, nil
}
