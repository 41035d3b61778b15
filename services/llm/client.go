// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides the text-generation backends the animator
// calls for translation, script generation and patch generation.
package llm

import "context"

// GenerationParams tunes a single generation call. Nil fields use the
// backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client is the standard interface for any LLM backend. One Client is
// bound to one model; the animator holds separate clients for the
// translator, generator and patch models.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
