// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/services/animator"
	"github.com/sceneforge/sceneforge/services/llm"
)

// rootOptions holds the flags shared by animate and serve.
type rootOptions struct {
	translatorModel string
	generatorModel  string
	patchModel      string
	quality         string
	resolution      string
	fps             int
	maxAttempts     int
	artifactsDir    string
	templatesDir    string
	promptsPath     string
	workDir         string
	manimBinary     string
	debug           bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "sceneforge",
		Short:         "Generate Manim animations from natural-language requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.translatorModel, "translator-model", "", "Model for request translation (empty disables translation)")
	pf.StringVar(&opts.generatorModel, "generator-model", "gemini-2.5-pro", "Model for script generation")
	pf.StringVar(&opts.patchModel, "patch-model", "", "Model for patch generation (defaults to the generator model)")
	pf.StringVar(&opts.quality, "quality", "l", "Render quality: l, m, h or k")
	pf.StringVar(&opts.resolution, "resolution", "", "Render resolution as WIDTHxHEIGHT")
	pf.IntVar(&opts.fps, "fps", 0, "Frame rate override")
	pf.IntVar(&opts.maxAttempts, "max-attempts", 3, "Patch cycles before giving up")
	pf.StringVar(&opts.artifactsDir, "artifacts-dir", "", "Directory for per-request debug artifacts")
	pf.StringVar(&opts.templatesDir, "templates-dir", "templates", "Directory of reference scene scripts")
	pf.StringVar(&opts.promptsPath, "prompts", "", "TOML file overriding the built-in prompts")
	pf.StringVar(&opts.workDir, "work-dir", "", "Directory for scene script files (defaults to the system temp dir)")
	pf.StringVar(&opts.manimBinary, "manim", "", "Renderer executable (defaults to manim on PATH)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newAnimateCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newCheckCmd())
	return root
}

// newLogger builds the process logger the way the services expect it.
func (o *rootOptions) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) serviceConfig() animator.ServiceConfig {
	cfg := animator.DefaultServiceConfig()
	cfg.MaxAttempts = o.maxAttempts
	cfg.Quality = o.quality
	cfg.Resolution = o.resolution
	cfg.FPS = o.fps
	cfg.ArtifactsDir = o.artifactsDir
	cfg.TemplatesDir = o.templatesDir
	cfg.PromptsPath = o.promptsPath
	cfg.ManimBinary = o.manimBinary
	if o.workDir != "" {
		cfg.WorkDir = o.workDir
	}
	return cfg
}

// buildClients constructs one client per configured model. Model names
// starting with "gpt-" route to OpenAI, everything else to Gemini.
func (o *rootOptions) buildClients() (animator.Clients, error) {
	patchModel := o.patchModel
	if patchModel == "" {
		patchModel = o.generatorModel
	}

	gen, err := newClient(o.generatorModel)
	if err != nil {
		return animator.Clients{}, fmt.Errorf("generator model: %w", err)
	}
	patcher, err := newClient(patchModel)
	if err != nil {
		return animator.Clients{}, fmt.Errorf("patch model: %w", err)
	}

	clients := animator.Clients{Generator: gen, Patcher: patcher}
	if o.translatorModel != "" {
		translator, err := newClient(o.translatorModel)
		if err != nil {
			return animator.Clients{}, fmt.Errorf("translator model: %w", err)
		}
		clients.Translator = translator
	}
	return clients, nil
}

func newClient(model string) (llm.Client, error) {
	if strings.HasPrefix(model, "gpt-") {
		return llm.NewOpenAIClient(model)
	}
	return llm.NewGeminiClient(model)
}
