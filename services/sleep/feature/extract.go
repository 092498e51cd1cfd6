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
	"errors"
	"math"
	"slices"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
	"gonum.org/v1/gonum/stat"
)

// Extractor derives a feature vector from one signal segment.
type Extractor interface {
	Extract(seg signal.Segment) (Vector, error)
}

// ErrEmptySegment is returned when a segment has no samples.
var ErrEmptySegment = errors.New("segment has no samples")

// StatNames lists the features produced by StatExtractor, in output order.
var StatNames = []string{
	"mean", "stddev", "min", "max", "median", "iqr",
	"zcr", "activity", "mobility", "complexity",
}

// StatExtractor computes descriptive statistics and Hjorth parameters
// over a segment. Activity, mobility, and complexity are the classic
// Hjorth descriptors used for EEG sleep staging.
type StatExtractor struct{}

// Extract computes the StatNames features for the segment.
func (StatExtractor) Extract(seg signal.Segment) (Vector, error) {
	n := len(seg.Samples)
	if n == 0 {
		return Vector{}, ErrEmptySegment
	}

	xs := seg.Samples
	mean := stat.Mean(xs, nil)
	variance := stat.Variance(xs, nil)
	if n < 2 {
		variance = 0
	}
	stddev := math.Sqrt(variance)

	sorted := make([]float64, n)
	copy(sorted, xs)
	sortFloats(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	iqr := stat.Quantile(0.75, stat.Empirical, sorted, nil) -
		stat.Quantile(0.25, stat.Empirical, sorted, nil)

	zcr := zeroCrossingRate(xs)

	activity := variance
	mobility, complexity := hjorth(xs, variance)

	return Vector{
		Names: StatNames,
		Values: []float64{
			mean, stddev, sorted[0], sorted[n-1], median, iqr,
			zcr, activity, mobility, complexity,
		},
	}, nil
}

// ExtractAll extracts one labeled vector per segment, preserving order.
func ExtractAll(ex Extractor, segs []signal.Segment) ([]Labeled, error) {
	out := make([]Labeled, len(segs))
	for i, seg := range segs {
		v, err := ex.Extract(seg)
		if err != nil {
			return nil, err
		}
		out[i] = Labeled{Vector: v, Label: seg.Label}
	}
	return out, nil
}

// zeroCrossingRate is the fraction of adjacent sample pairs whose
// mean-removed values change sign.
func zeroCrossingRate(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	crossings := 0
	for i := 1; i < len(xs); i++ {
		if (xs[i]-mean)*(xs[i-1]-mean) < 0 {
			crossings++
		}
	}
	return float64(crossings) / float64(len(xs)-1)
}

// hjorth computes the mobility and complexity descriptors given the
// signal variance (Hjorth activity).
func hjorth(xs []float64, activity float64) (mobility, complexity float64) {
	if len(xs) < 3 || activity == 0 {
		return 0, 0
	}
	d1 := diff(xs)
	d2 := diff(d1)
	varD1 := stat.Variance(d1, nil)
	varD2 := stat.Variance(d2, nil)

	mobility = math.Sqrt(varD1 / activity)
	if varD1 == 0 {
		return mobility, 0
	}
	complexity = math.Sqrt(varD2/varD1) / mobility
	if math.IsNaN(complexity) || math.IsInf(complexity, 0) {
		complexity = 0
	}
	return mobility, complexity
}

func diff(xs []float64) []float64 {
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

func sortFloats(xs []float64) {
	slices.Sort(xs)
}
