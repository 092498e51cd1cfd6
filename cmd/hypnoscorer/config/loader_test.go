// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hypnoscorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog: /data/catalog.yaml
cache_dir: ""
server:
  addr: ":9090"
  debug: true
search:
  folds: 3
  population: 8
  generations: 4
  mutation_rate: 0.1
logging:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/catalog.yaml", cfg.Catalog)
	assert.Empty(t, cfg.CacheDir)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, 3, cfg.Search.Folds)
	assert.Equal(t, 0.1, cfg.Search.MutationRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaultsForOmittedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hypnoscorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: /data/catalog.yaml\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Search.Folds)
	assert.Equal(t, 20, cfg.Search.Population)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad-level.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
catalog: /data/catalog.yaml
logging:
  level: loud
`), 0644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "invalid config")

	missing := filepath.Join(dir, "no-catalog.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("cache_dir: /tmp/cache\ncatalog: \"\"\n"), 0644))
	_, err = Load(missing)
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: [unclosed\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".hypnoscorer"), ExpandHome("~/.hypnoscorer"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/var/log", ExpandHome("/var/log"))
}
