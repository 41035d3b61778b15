// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testGeminiClient(serverURL string) *GeminiClient {
	return &GeminiClient{
		httpClient: http.DefaultClient,
		baseURL:    serverURL,
		apiKey:     "test-key",
		model:      "gemini-test",
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		resp := geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Parts: []geminiPart{{Text: "from manim import *"}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	got, err := client.Generate(context.Background(), "draw a circle", GenerationParams{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "from manim import *" {
		t.Errorf("Generate = %q", got)
	}
	if gotPath != "/models/gemini-test:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" {
		t.Errorf("request contents = %+v", gotBody.Contents)
	}
	if gotBody.GenerationConfig != nil {
		t.Errorf("empty params produced a generation config: %+v", gotBody.GenerationConfig)
	}
}

func TestGeminiGenerateParams(t *testing.T) {
	var gotBody geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Parts: []geminiPart{{Text: "ok"}}}},
			},
		})
	}))
	defer server.Close()

	temp := float32(0.2)
	maxTokens := 2048
	client := testGeminiClient(server.URL)
	if _, err := client.Generate(context.Background(), "p", GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	cfg := gotBody.GenerationConfig
	if cfg == nil {
		t.Fatal("generation config not sent")
	}
	if cfg.Temperature == nil || *cfg.Temperature != temp {
		t.Errorf("temperature = %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens == nil || *cfg.MaxOutputTokens != maxTokens {
		t.Errorf("maxOutputTokens = %v", cfg.MaxOutputTokens)
	}
}

func TestGeminiGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota exceeded"},
		})
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v", err)
	}
}

func TestGeminiGenerateEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	if _, err := client.Generate(context.Background(), "p", GenerationParams{}); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestNewGeminiClientMissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewGeminiClient("gemini-2.5-pro"); err == nil {
		t.Error("expected error without GEMINI_API_KEY")
	}
}

func TestNewGeminiClientDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	client, err := NewGeminiClient("")
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	if client.model != "gemini-2.5-pro" {
		t.Errorf("default model = %q", client.model)
	}
}
