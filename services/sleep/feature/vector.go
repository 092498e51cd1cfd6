// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package feature defines the feature-vector record type flowing through
// the pipeline and the extraction of features from signal segments.
package feature

import (
	"fmt"
	"slices"
)

// Vector is a fixed-size ordered mapping from feature name to value.
// Names and Values are index-aligned. Vectors are value types: stages
// never mutate a vector they did not create.
type Vector struct {
	Names  []string
	Values []float64
}

// Value returns the value of a named feature.
func (v Vector) Value(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Project returns a new vector restricted to the given features, in the
// given order.
//
// Outputs:
//
//	Vector - The restricted vector.
//	error - Non-nil if a requested feature is absent.
func (v Vector) Project(names []string) (Vector, error) {
	out := Vector{
		Names:  slices.Clone(names),
		Values: make([]float64, len(names)),
	}
	for i, name := range names {
		val, ok := v.Value(name)
		if !ok {
			return Vector{}, fmt.Errorf("unknown feature %q", name)
		}
		out.Values[i] = val
	}
	return out, nil
}

// Extend returns a new vector with an extra feature appended.
func (v Vector) Extend(name string, value float64) Vector {
	return Vector{
		Names:  append(slices.Clone(v.Names), name),
		Values: append(slices.Clone(v.Values), value),
	}
}

// Labeled is a feature vector with its inherited stage label. This is
// the principal record type of the pipeline.
type Labeled struct {
	Vector
	Label string
}

// Project restricts the vector while keeping the label.
func (l Labeled) Project(names []string) (Labeled, error) {
	v, err := l.Vector.Project(names)
	if err != nil {
		return Labeled{}, err
	}
	return Labeled{Vector: v, Label: l.Label}, nil
}

// Names returns the declared feature names of a non-empty set. All
// vectors in a set share one feature universe.
func Names(set []Labeled) []string {
	if len(set) == 0 {
		return nil
	}
	return set[0].Vector.Names
}

// ProjectAll restricts every vector in the set to the given features.
func ProjectAll(set []Labeled, names []string) ([]Labeled, error) {
	out := make([]Labeled, len(set))
	for i, l := range set {
		p, err := l.Project(names)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
