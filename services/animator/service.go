// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package animator wires the generation pipeline, its collaborators
// and the HTTP surface into one service.
package animator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sceneforge/sceneforge/services/animator/artifacts"
	"github.com/sceneforge/sceneforge/services/animator/pipeline"
	"github.com/sceneforge/sceneforge/services/animator/prompts"
	"github.com/sceneforge/sceneforge/services/animator/runner"
	"github.com/sceneforge/sceneforge/services/animator/templates"
	"github.com/sceneforge/sceneforge/services/llm"
)

// ServiceConfig configures the animator service.
type ServiceConfig struct {
	// MaxAttempts caps the patch cycles per request.
	MaxAttempts int `validate:"gte=0,lte=10"`

	// CountApplyFailures controls whether unapplied diffs consume
	// attempt budget.
	CountApplyFailures bool

	// Quality is the render quality letter (l, m, h, k).
	Quality string `validate:"omitempty,oneof=l m h k"`

	// Resolution is "WIDTHxHEIGHT", or empty for the quality default.
	Resolution string

	// FPS overrides the frame rate when positive.
	FPS int `validate:"gte=0,lte=120"`

	// TemplatesDir holds the *.py reference scenes.
	TemplatesDir string

	// PromptsPath optionally overrides the baked-in prompts.
	PromptsPath string

	// ArtifactsDir enables per-request artifact persistence.
	ArtifactsDir string

	// WorkDir is where scene scripts are written for rendering.
	WorkDir string `validate:"required"`

	// ManimBinary overrides the renderer executable name.
	ManimBinary string
}

// DefaultServiceConfig mirrors the production defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxAttempts:        3,
		CountApplyFailures: true,
		Quality:            "l",
		WorkDir:            filepath.Join(os.TempDir(), "sceneforge"),
	}
}

// Clients bundles the model bindings the service calls.
type Clients struct {
	// Translator turns a Japanese request into English. Nil disables
	// the translation step.
	Translator llm.Client

	// Generator produces the initial scene script.
	Generator llm.Client

	// Patcher produces corrective diffs.
	Patcher llm.Client
}

// GenerateRequest is one animation request.
type GenerateRequest struct {
	// Topic is the natural-language scene description.
	Topic string

	// EnhancePrompt is an optional extra instruction appended to the
	// topic.
	EnhancePrompt string
}

// GenerateResult is the service-level outcome of one request.
type GenerateResult struct {
	RequestID   string
	Outcome     pipeline.Outcome
	Script      string
	Attempts    int
	FatalReason string
	ArtifactDir string
	Elapsed     time.Duration
}

// Service runs animation requests end to end.
//
// # Thread Safety
//
// Safe for concurrent use; every request gets its own orchestrator,
// artifact writer and script file.
type Service struct {
	cfg       ServiceConfig
	clients   Clients
	prompts   *prompts.Store
	templates *templates.Library
	runner    *runner.Runner
	logger    *slog.Logger
}

// NewService wires the service together.
func NewService(cfg ServiceConfig, clients Clients, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}
	if clients.Generator == nil {
		return nil, fmt.Errorf("generator client is required")
	}
	if clients.Patcher == nil {
		clients.Patcher = clients.Generator
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}

	return &Service{
		cfg:       cfg,
		clients:   clients,
		prompts:   prompts.Load(cfg.PromptsPath, logger),
		templates: templates.NewLibrary(cfg.TemplatesDir, logger),
		runner:    runner.New(cfg.ManimBinary, logger),
		logger:    logger,
	}, nil
}

// Templates exposes the reference library, for hot-reload wiring.
func (s *Service) Templates() *templates.Library {
	return s.templates
}

// GenerateAnimation runs one request through translate and the
// generate/validate/execute/patch loop.
//
// # Description
//
// Returns a GenerateResult for every completed run; the error return
// is reserved for cancellation and translation transport failures.
func (s *Service) GenerateAnimation(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	requestID := uuid.NewString()
	started := time.Now()
	logger := s.logger.With(slog.String("request_id", requestID))

	w := artifacts.NewWriter(s.cfg.ArtifactsDir, requestID, logger)
	composed := composeUserPrompt(req.Topic, req.EnhancePrompt)
	w.Write("user_request.txt", composed)

	request, err := s.translate(ctx, composed, w, logger)
	if err != nil {
		runsTotal.WithLabelValues(string(pipeline.OutcomeExhausted)).Inc()
		return GenerateResult{
			RequestID:   requestID,
			Outcome:     pipeline.OutcomeExhausted,
			FatalReason: err.Error(),
			ArtifactDir: w.Root(),
			Elapsed:     time.Since(started),
		}, err
	}
	if s.clients.Translator != nil {
		w.Write("translated.txt", request)
	}

	orch, err := pipeline.New(
		&scriptGenerator{service: s, writer: w},
		&scriptExecutor{service: s, requestID: requestID},
		pipeline.Config{
			MaxAttempts:        s.cfg.MaxAttempts,
			CountApplyFailures: s.cfg.CountApplyFailures,
		},
		logger,
	)
	if err != nil {
		return GenerateResult{}, err
	}

	res, runErr := orch.Run(ctx, request, w)
	elapsed := time.Since(started)

	runsTotal.WithLabelValues(string(res.Outcome)).Inc()
	patchAttemptsTotal.Add(float64(res.Attempts))
	runDuration.Observe(elapsed.Seconds())

	logger.Info("animation request finished",
		slog.String("outcome", string(res.Outcome)),
		slog.Int("attempts", res.Attempts),
		slog.Duration("elapsed", elapsed))

	return GenerateResult{
		RequestID:   requestID,
		Outcome:     res.Outcome,
		Script:      res.Script,
		Attempts:    res.Attempts,
		FatalReason: res.FatalReason,
		ArtifactDir: w.Root(),
		Elapsed:     elapsed,
	}, runErr
}

// translate runs the optional translation step.
func (s *Service) translate(ctx context.Context, composed string, w *artifacts.Writer, logger *slog.Logger) (string, error) {
	if s.clients.Translator == nil {
		return composed, nil
	}
	prompt := prompts.Fill(s.prompts.Translate, map[string]string{"request": composed})
	w.Write("prompt_translate.txt", prompt)

	translated, err := s.clients.Translator.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		logger.Error("translation failed", slog.String("error", err.Error()))
		w.Write("error.log", err.Error())
		return "", fmt.Errorf("translation failed: %w", err)
	}
	return strings.TrimSpace(translated), nil
}

// composeUserPrompt merges the topic with the optional extra
// instruction.
func composeUserPrompt(topic, enhance string) string {
	topic = strings.TrimSpace(topic)
	enhance = strings.TrimSpace(enhance)
	if enhance == "" {
		return topic
	}
	return topic + "\n\n[Additional Instruction]\n" + enhance
}

// scriptGenerator adapts the prompt store and LLM clients to the
// pipeline's Generator interface, one instance per request.
type scriptGenerator struct {
	service *Service
	writer  *artifacts.Writer

	patchAttempt int
}

func (g *scriptGenerator) GenerateScript(ctx context.Context, request string) (string, error) {
	prompt := prompts.Fill(g.service.prompts.Generate, map[string]string{
		"request":      request,
		"code_bundles": g.service.templates.Bundle(),
	})
	g.writer.Write("prompt_generate.txt", prompt)
	return g.service.clients.Generator.Generate(ctx, prompt, llm.GenerationParams{})
}

func (g *scriptGenerator) GeneratePatch(ctx context.Context, script, errorContext string) (string, error) {
	g.patchAttempt++
	prompt := prompts.Fill(g.service.prompts.Patch, map[string]string{
		"current_code": script,
		"error_tail":   errorContext,
	})
	g.writer.WriteAttempt("prompt_patch", g.patchAttempt, ".txt", prompt)
	return g.service.clients.Patcher.Generate(ctx, prompt, llm.GenerationParams{})
}

// scriptExecutor adapts the manim runner to the pipeline's Executor
// interface. The script is written to a per-request file before each
// render.
type scriptExecutor struct {
	service   *Service
	requestID string
}

func (e *scriptExecutor) Execute(ctx context.Context, script string) (pipeline.ExecResult, error) {
	path := filepath.Join(e.service.cfg.WorkDir, e.requestID+".py")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return pipeline.ExecResult{}, fmt.Errorf("writing script: %w", err)
	}

	res, err := e.service.runner.Run(ctx, path, runner.Config{
		Quality:    e.service.cfg.Quality,
		Resolution: e.service.cfg.Resolution,
		FPS:        e.service.cfg.FPS,
	})
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.ExecResult{}, err
		}
		// A missing or unlaunchable renderer is a runtime failure the
		// patch loop reports, not a transport error that kills it.
		return pipeline.ExecResult{ExitCode: 127, Stderr: err.Error()}, nil
	}
	return pipeline.ExecResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}, nil
}
