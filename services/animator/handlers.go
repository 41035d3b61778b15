// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package animator

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sceneforge/sceneforge/services/animator/pipeline"
)

// Handlers contains the HTTP handlers for the animator service.
//
// Thread Safety: Handlers is safe for concurrent use.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers wrapping the given service.
func NewHandlers(svc *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// HandleGenerate handles POST /v1/animator/generate.
//
// Description:
//
//	Runs the full generate, validate, render and patch loop for one
//	topic. The response always reports the terminal outcome; a
//	rejected or exhausted run is still a 200 with the outcome set.
//
// Response:
//
//	200 OK: AnimateResponse
//	400 Bad Request: Validation error
//	500 Internal Server Error: Translation or cancellation failure
func (h *Handlers) HandleGenerate(c *gin.Context) {
	var req AnimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	res, err := h.svc.GenerateAnimation(c.Request.Context(), GenerateRequest{
		Topic:         req.Topic,
		EnhancePrompt: req.EnhancePrompt,
	})
	if err != nil {
		h.logger.Error("Animation request failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "GENERATION_FAILED",
		})
		return
	}

	resp := AnimateResponse{
		RequestID: res.RequestID,
		Outcome:   string(res.Outcome),
		Attempts:  res.Attempts,
		Reason:    res.FatalReason,
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
	if res.Outcome == pipeline.OutcomeSuccess {
		resp.Script = res.Script
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/animator/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   ServiceVersion,
		Templates: h.svc.Templates().Len(),
	})
}
