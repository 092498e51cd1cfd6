// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package signal models polysomnographic recordings: a sampled signal,
// its per-epoch sleep-stage annotations, and the segmentation of a
// recording into labeled slices ready for feature extraction.
//
// A recording pairs one Signal with a hypnogram: one stage label per
// annotation epoch (typically 30 seconds). Segmentation divides every
// epoch into a fixed number of equal-length sub-segments, each
// inheriting the epoch's label.
package signal

import (
	"errors"
	"fmt"
)

// Stage labels follow the R&K / AASM convention used in hypnogram files:
// "W" wake, "R" REM, "1".."4" NREM stages, "M" movement.

// Signal is an immutable, uniformly sampled time series.
type Signal struct {
	// Unit is the physical unit of the samples (e.g. "uV").
	Unit string

	// Rate is the sampling rate in Hz.
	Rate float64

	// Samples are the raw sample values. Timestamp of sample i is i/Rate
	// seconds from the start of the recording.
	Samples []float64
}

// Duration returns the length of the signal in seconds.
func (s Signal) Duration() float64 {
	if s.Rate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / s.Rate
}

// Segment is a contiguous, labeled slice of a Signal.
type Segment struct {
	// Label is the single-character stage code inherited from the epoch.
	Label string

	// Unit and Rate are carried over from the source signal.
	Unit string
	Rate float64

	// Samples is the slice of the source signal covered by this segment.
	Samples []float64
}

// Recording is a Signal together with its hypnogram.
type Recording struct {
	// Name is the catalog name of the record.
	Name string

	// Signal is the sampled data.
	Signal Signal

	// Labels holds one stage code per annotation epoch, in epoch order.
	Labels []string

	// EpochSeconds is the duration of one annotation epoch.
	EpochSeconds float64
}

// ErrNoSamples is returned when a recording has too little data to segment.
var ErrNoSamples = errors.New("recording has no samples for its annotations")

// Segment divides the recording into labeled sub-segments.
//
// Description:
//
//	Every annotation epoch is cut into perEpoch equal-length segments,
//	each inheriting the epoch's stage label. Epochs that extend past the
//	end of the signal are dropped; within an epoch, trailing samples that
//	do not fill a whole sub-segment are discarded.
//
// Inputs:
//
//	perEpoch - Number of segments per epoch. Must be >= 1.
//
// Outputs:
//
//	[]Segment - Segments in time order.
//	error - Non-nil if perEpoch < 1 or no epoch fits in the signal.
func (r Recording) Segment(perEpoch int) ([]Segment, error) {
	if perEpoch < 1 {
		return nil, fmt.Errorf("segments per epoch must be >= 1, got %d", perEpoch)
	}
	epochLen := int(r.EpochSeconds * r.Signal.Rate)
	if epochLen == 0 {
		return nil, ErrNoSamples
	}
	segLen := epochLen / perEpoch
	if segLen == 0 {
		return nil, fmt.Errorf("epoch of %d samples cannot hold %d segments", epochLen, perEpoch)
	}

	var segments []Segment
	for i, label := range r.Labels {
		start := i * epochLen
		if start+epochLen > len(r.Signal.Samples) {
			break
		}
		for j := 0; j < perEpoch; j++ {
			lo := start + j*segLen
			segments = append(segments, Segment{
				Label:   label,
				Unit:    r.Signal.Unit,
				Rate:    r.Signal.Rate,
				Samples: r.Signal.Samples[lo : lo+segLen],
			})
		}
	}
	if len(segments) == 0 {
		return nil, ErrNoSamples
	}
	return segments, nil
}
