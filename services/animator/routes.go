// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package animator

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all animator routes with the router.
//
// Description:
//
//	Registers the /v1/animator/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Endpoints:
//
//	POST /v1/animator/generate - Run one animation request
//	GET  /v1/animator/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	animator := rg.Group("/animator")
	{
		animator.POST("/generate", handlers.HandleGenerate)
		animator.GET("/health", handlers.HandleHealth)
	}
}
