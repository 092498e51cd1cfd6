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
	"fmt"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GEO-IASS/hypnoscorer/cmd/hypnoscorer/config"
	"github.com/GEO-IASS/hypnoscorer/pkg/logging"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/pipeline"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
)

// --- Global Command Variables ---
var (
	configPath string
	seedFlag   int64
	addrFlag   string

	appConfig config.HypnoscorerConfig
	appLogger *slog.Logger
	logClose  func() error

	rootCmd = &cobra.Command{
		Use:   "hypnoscorer",
		Short: "A cli to score sleep-EEG recordings with a command-driven feature pipeline",
		Long: `Hypnoscorer transforms physiological signal recordings into labeled
				feature vectors, trains and evaluates stage classifiers, and
				searches for strong feature subsets.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
			appConfig = cfg

			logger, closeFn, err := logging.New(logging.Config{
				Level:   logging.ParseLevel(cfg.Logging.Level),
				LogDir:  cfg.Logging.Dir,
				Service: "hypnoscorer",
				JSON:    cfg.Logging.JSON,
			})
			if err != nil {
				log.Fatalf("Error initializing logging: %v", err)
			}
			appLogger = logger
			logClose = closeFn
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logClose != nil {
				_ = logClose()
			}
		},
	}

	runCmd = &cobra.Command{
		Use:   "run [pipeline command]",
		Short: "Execute a pipeline command against the catalogued recordings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPipeline, // Defined in cmd_run.go
	}

	recordsCmd = &cobra.Command{
		Use:   "records",
		Short: "List the catalogued recordings",
		RunE:  runRecords, // Defined in cmd_records.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the sleep-scoring API server",
		RunE:  runServe, // Defined in cmd_serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the config file (default ~/.hypnoscorer/hypnoscorer.yaml)")

	runCmd.Flags().Int64Var(&seedFlag, "seed", 0,
		"Seed for the run's random source (0 means clock-derived)")

	serveCmd.Flags().StringVar(&addrFlag, "addr", "",
		"Listen address override (default from config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(serveCmd)
}

// searchConfig maps the file config onto the pipeline's parameters.
func searchConfig() pipeline.SearchConfig {
	return pipeline.SearchConfig{
		Folds:        appConfig.Search.Folds,
		Population:   appConfig.Search.Population,
		Generations:  appConfig.Search.Generations,
		MutationRate: appConfig.Search.MutationRate,
	}
}

// openLoader builds the catalog-backed recording loader. The returned
// cleanup closes the cache; it is non-nil even when caching is off.
func openLoader() (*signal.Loader, func() error, error) {
	catalog, err := signal.LoadCatalog(config.ExpandHome(appConfig.Catalog))
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	var cache *signal.Cache
	cleanup := func() error { return nil }
	if appConfig.CacheDir != "" {
		cfg := signal.DefaultCacheConfig(config.ExpandHome(appConfig.CacheDir))
		cache, err = signal.OpenCache(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open recording cache: %w", err)
		}
		cleanup = cache.Close
	}

	return signal.NewLoader(catalog, cache, appLogger), cleanup, nil
}
