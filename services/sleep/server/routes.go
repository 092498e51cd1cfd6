// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the sleep-scoring routes under the given
// group.
//
// Routes:
//
//	POST /sleep/pipeline/run - Execute a pipeline command
//	GET  /sleep/records      - List catalogued recordings
//	GET  /sleep/health       - Health check
//
// Example:
//
//	handlers := server.NewHandlers(catalog, loader)
//	v1 := router.Group("/v1")
//	server.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	sleep := rg.Group("/sleep")
	{
		sleep.POST("/pipeline/run", handlers.HandleRun)
		sleep.GET("/records", handlers.HandleRecords)
		sleep.GET("/health", handlers.HandleHealth)
	}
}
