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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestRecord writes a small signal + hypnogram pair and returns a
// catalog pointing at them.
func writeTestRecord(t *testing.T, name string) *Catalog {
	t.Helper()
	dir := t.TempDir()

	signalPath := filepath.Join(dir, "signal.csv")
	var body string
	for i := 0; i < 40; i++ {
		body += fmt.Sprintf("%d.0\n", i)
	}
	require.NoError(t, os.WriteFile(signalPath, []byte(body), 0600))

	labelPath := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labelPath, []byte("W\n1\n"), 0600))

	return &Catalog{Records: []Record{{
		Name:         name,
		SignalPath:   signalPath,
		LabelPath:    labelPath,
		Unit:         "uV",
		Rate:         10,
		EpochSeconds: 2,
	}}}
}

func TestLoaderLoad(t *testing.T) {
	cat := writeTestRecord(t, "SC4001E0")
	loader := NewLoader(cat, nil, nil)

	rec, err := loader.Load([]string{"4001"})
	require.NoError(t, err)
	assert.Equal(t, "SC4001E0", rec.Name)
	assert.Len(t, rec.Signal.Samples, 40)
	assert.Equal(t, []string{"W", "1"}, rec.Labels)
	assert.Equal(t, 2.0, rec.EpochSeconds)
}

func TestLoaderNoMatch(t *testing.T) {
	cat := writeTestRecord(t, "SC4001E0")
	loader := NewLoader(cat, nil, nil)

	_, err := loader.Load([]string{"missing"})
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestLoaderUsesCache(t *testing.T) {
	cat := writeTestRecord(t, "SC4001E0")
	cache, err := OpenCache(InMemoryCacheConfig())
	require.NoError(t, err)
	defer cache.Close()

	loader := NewLoader(cat, cache, nil)

	first, err := loader.Load([]string{"4001"})
	require.NoError(t, err)

	// Remove the backing file; the second load must come from the cache.
	require.NoError(t, os.Remove(cat.Records[0].SignalPath))

	second, err := loader.Load([]string{"4001"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(InMemoryCacheConfig())
	require.NoError(t, err)
	defer cache.Close()

	_, ok, err := cache.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := testRecording(2)
	require.NoError(t, cache.Put(rec))

	got, ok, err := cache.Get("TEST0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestReadSamplesFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.csv")
	content := "# comment\n1.5\n0.1,2.5\n\n3.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	samples, err := readSamples(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, samples)
}
