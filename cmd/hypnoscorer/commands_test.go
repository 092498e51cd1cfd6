// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEO-IASS/hypnoscorer/cmd/hypnoscorer/config"
)

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["records"])
	assert.True(t, names["serve"])
}

func TestCommandFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, runCmd.Flags().Lookup("seed"))
	require.NotNil(t, serveCmd.Flags().Lookup("addr"))
}

func TestSearchConfigMapping(t *testing.T) {
	appConfig = config.HypnoscorerConfig{
		Search: config.SearchConfig{
			Folds:        3,
			Population:   8,
			Generations:  4,
			MutationRate: 0.2,
		},
	}
	t.Cleanup(func() { appConfig = config.HypnoscorerConfig{} })

	cfg := searchConfig()
	assert.Equal(t, 3, cfg.Folds)
	assert.Equal(t, 8, cfg.Population)
	assert.Equal(t, 4, cfg.Generations)
	assert.Equal(t, 0.2, cfg.MutationRate)
}
