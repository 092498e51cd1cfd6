// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecording(epochs int) Recording {
	// 10 Hz, 2-second epochs: 20 samples per epoch.
	samples := make([]float64, epochs*20)
	for i := range samples {
		samples[i] = float64(i)
	}
	labels := make([]string, epochs)
	stages := []string{"W", "1", "2", "R"}
	for i := range labels {
		labels[i] = stages[i%len(stages)]
	}
	return Recording{
		Name:         "TEST0",
		Signal:       Signal{Unit: "uV", Rate: 10, Samples: samples},
		Labels:       labels,
		EpochSeconds: 2,
	}
}

func TestSignalDuration(t *testing.T) {
	rec := testRecording(3)
	assert.InDelta(t, 6.0, rec.Signal.Duration(), 1e-9)
	assert.Zero(t, Signal{}.Duration())
}

func TestSegmentPerEpochCount(t *testing.T) {
	rec := testRecording(4)

	segs, err := rec.Segment(2)
	require.NoError(t, err)
	require.Len(t, segs, 8)

	// Each sub-segment holds half an epoch and inherits the epoch label.
	for i, seg := range segs {
		assert.Len(t, seg.Samples, 10)
		assert.Equal(t, rec.Labels[i/2], seg.Label)
		assert.Equal(t, "uV", seg.Unit)
	}
	// Segments are contiguous in time.
	assert.Equal(t, 0.0, segs[0].Samples[0])
	assert.Equal(t, 10.0, segs[1].Samples[0])
	assert.Equal(t, 20.0, segs[2].Samples[0])
}

func TestSegmentDropsTruncatedEpoch(t *testing.T) {
	rec := testRecording(3)
	// Chop the signal so the last epoch is incomplete.
	rec.Signal.Samples = rec.Signal.Samples[:50]

	segs, err := rec.Segment(1)
	require.NoError(t, err)
	assert.Len(t, segs, 2)
}

func TestSegmentRejectsBadInput(t *testing.T) {
	rec := testRecording(2)

	_, err := rec.Segment(0)
	assert.Error(t, err)

	// More segments than samples per epoch.
	_, err = rec.Segment(100)
	assert.Error(t, err)

	empty := Recording{EpochSeconds: 30}
	_, err = empty.Segment(1)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestCatalogFind(t *testing.T) {
	cat := &Catalog{Records: []Record{
		{Name: "SC4001E0-EEG-Fpz-Cz", Rate: 100},
		{Name: "SC4002E0-EEG-Fpz-Cz", Rate: 100},
		{Name: "SC4002E0-EOG", Rate: 50},
	}}

	rec, err := cat.Find([]string{"4002", "eog"})
	require.NoError(t, err)
	assert.Equal(t, "SC4002E0-EOG", rec.Name)

	// Multiple matches resolve to the first catalog entry.
	rec, err = cat.Find([]string{"EEG"})
	require.NoError(t, err)
	assert.Equal(t, "SC4001E0-EEG-Fpz-Cz", rec.Name)

	_, err = cat.Find([]string{"PT9999"})
	assert.ErrorIs(t, err, ErrNoRecord)
}
