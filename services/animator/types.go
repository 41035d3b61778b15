// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package animator

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.3.0"

// AnimateRequest is the body of POST /v1/animator/generate.
type AnimateRequest struct {
	// Topic is the natural-language scene description.
	Topic string `json:"topic" binding:"required,min=1,max=4000"`

	// EnhancePrompt is an optional extra instruction.
	EnhancePrompt string `json:"enhance_prompt" binding:"max=4000"`
}

// AnimateResponse is the success body of POST /v1/animator/generate.
type AnimateResponse struct {
	// RequestID identifies the run and its artifact directory.
	RequestID string `json:"request_id"`

	// Outcome is "success", "policy-rejected" or "exhausted-with-error".
	Outcome string `json:"outcome"`

	// Script is the final scene script when the run succeeded.
	Script string `json:"script,omitempty"`

	// Attempts is the number of patch cycles consumed.
	Attempts int `json:"attempts"`

	// Reason explains a non-success outcome.
	Reason string `json:"reason,omitempty"`

	// ElapsedMS is the wall-clock duration of the run.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`

	// Templates is the number of loaded reference scenes.
	Templates int `json:"templates"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}
