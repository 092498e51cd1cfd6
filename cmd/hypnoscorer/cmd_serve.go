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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/pipeline"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/server"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/telemetry"
)

// runServe starts the sleep-scoring API server.
func runServe(cmd *cobra.Command, args []string) error {
	if appConfig.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	loader, cleanup, err := openLoader()
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	handlers := server.NewHandlers(loader.Catalog(), loader,
		pipeline.WithSearchConfig(searchConfig())).WithMetrics(metrics)

	router := gin.New()
	router.Use(gin.Recovery())
	if appConfig.Server.Debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	server.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := appConfig.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}

	appLogger.Info("Starting sleep-scoring server",
		"address", addr,
		"records", len(loader.Catalog().Names()))
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
