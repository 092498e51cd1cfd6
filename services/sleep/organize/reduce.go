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
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
)

// Reducer satisfies the deep-belief-network collaborator contract:
// reduce a feature space through a stack of layers and append the
// derived features to every vector. Training strategy, epochs, and
// architecture are the implementation's concern; the pipeline only
// depends on this boundary.
type Reducer interface {
	Reduce(set []feature.Labeled, layerSizes []int) ([]feature.Labeled, error)
}

// ErrBadLayers is returned for an empty or non-positive layer spec.
var ErrBadLayers = errors.New("invalid layer sizes")

// RandomProjection is a lightweight Reducer: a stack of tanh layers
// with weights drawn from the injected RNG, scaled per layer so the
// activations stay in range. It stands in for a pretrained DBN while
// keeping runs reproducible under a fixed seed.
type RandomProjection struct {
	rng *rand.Rand
}

// NewRandomProjection creates a reducer drawing weights from rng.
func NewRandomProjection(rng *rand.Rand) *RandomProjection {
	return &RandomProjection{rng: rng}
}

// Reduce appends one derived feature per unit of the final layer,
// named "dbn1".."dbnN".
func (r *RandomProjection) Reduce(set []feature.Labeled, layerSizes []int) ([]feature.Labeled, error) {
	if len(layerSizes) == 0 {
		return nil, ErrBadLayers
	}
	for _, size := range layerSizes {
		if size < 1 {
			return nil, fmt.Errorf("%w: %v", ErrBadLayers, layerSizes)
		}
	}
	if len(set) == 0 {
		return nil, nil
	}

	inDim := len(feature.Names(set))
	weights := make([][][]float64, len(layerSizes))
	prev := inDim
	for li, size := range layerSizes {
		layer := make([][]float64, size)
		scale := 1 / math.Sqrt(float64(prev))
		for u := range layer {
			row := make([]float64, prev)
			for j := range row {
				row[j] = r.rng.NormFloat64() * scale
			}
			layer[u] = row
		}
		weights[li] = layer
		prev = size
	}

	out := make([]feature.Labeled, len(set))
	for i, l := range set {
		act := l.Values
		for _, layer := range weights {
			next := make([]float64, len(layer))
			for u, row := range layer {
				var sum float64
				for j, w := range row {
					sum += w * act[j]
				}
				next[u] = math.Tanh(sum)
			}
			act = next
		}
		v := l.Vector
		for u, val := range act {
			v = v.Extend(fmt.Sprintf("dbn%d", u+1), val)
		}
		out[i] = feature.Labeled{Vector: v, Label: l.Label}
	}
	return out, nil
}
