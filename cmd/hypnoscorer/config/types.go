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
	"github.com/go-playground/validator/v10"
)

// configValidate checks the validate tags on HypnoscorerConfig.
var configValidate = validator.New()

// HypnoscorerConfig is the top-level configuration file structure.
type HypnoscorerConfig struct {
	// Catalog is the path to the recording catalog YAML file.
	Catalog string `yaml:"catalog" validate:"required"`

	// CacheDir is the BadgerDB directory for parsed recordings.
	// Empty disables the cache.
	CacheDir string `yaml:"cache_dir"`

	// Server configures the HTTP surface.
	Server ServerConfig `yaml:"server"`

	// Search configures cross-validation and the genetic search.
	Search SearchConfig `yaml:"search"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr" validate:"required"`

	// Debug enables Gin debug mode and request logging.
	Debug bool `yaml:"debug"`
}

// SearchConfig mirrors the pipeline search parameters.
type SearchConfig struct {
	Folds        int     `yaml:"folds" validate:"gte=2"`
	Population   int     `yaml:"population" validate:"gte=2"`
	Generations  int     `yaml:"generations" validate:"gte=1"`
	MutationRate float64 `yaml:"mutation_rate" validate:"gte=0,lte=1"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir is where dated log files go; "~" expands to the home
	// directory.
	Dir string `yaml:"dir"`

	// JSON selects JSON output on stderr instead of text.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the defaults written on first run.
func DefaultConfig() HypnoscorerConfig {
	return HypnoscorerConfig{
		Catalog:  "~/.hypnoscorer/catalog.yaml",
		CacheDir: "~/.hypnoscorer/cache",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Search: SearchConfig{
			Folds:        5,
			Population:   20,
			Generations:  10,
			MutationRate: 0.05,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.hypnoscorer/logs",
		},
	}
}

// Validate checks the configuration against its validate tags.
func (c *HypnoscorerConfig) Validate() error {
	return configValidate.Struct(c)
}
