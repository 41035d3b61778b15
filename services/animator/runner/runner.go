// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package runner invokes the manim renderer on a script file and
// captures its outcome. A non-zero exit is not an error here; it is
// the renderer's verdict and the repair loop's input.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
)

// DefaultBinary is the renderer executable looked up on PATH.
const DefaultBinary = "manim"

// ErrBinaryNotFound indicates the renderer executable is absent.
var ErrBinaryNotFound = errors.New("manim binary not found")

// ErrBadResolution indicates a resolution string not in WxH form.
var ErrBadResolution = errors.New("resolution must be WIDTHxHEIGHT")

// qualityFlags maps the short quality letter to the manim flag.
// Unknown letters fall back to medium.
var qualityFlags = map[string]string{
	"l": "-ql",
	"m": "-qm",
	"h": "-qh",
	"k": "-qk",
}

var resolutionRe = regexp.MustCompile(`^(\d+)x(\d+)$`)

// Config selects the render settings for one invocation.
type Config struct {
	// Quality is the letter l, m, h or k. Empty means m.
	Quality string

	// Resolution is "WIDTHxHEIGHT", or empty for the quality default.
	Resolution string

	// FPS overrides the frame rate when positive.
	FPS int

	// OutputFile names the rendered file when non-empty.
	OutputFile string
}

// Result captures one renderer invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the render succeeded.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// StderrTail returns the last maxLines lines of stderr for repair
// prompts; manim dumps long tracebacks and only the tail matters.
func (r Result) StderrTail(maxLines int) string {
	lines := strings.Split(strings.TrimRight(r.Stderr, "\n"), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

// Runner shells out to manim.
//
// # Thread Safety
//
// Safe for concurrent use; each Run builds its own command.
type Runner struct {
	binary string
	logger *slog.Logger
}

// New creates a Runner using the given binary name, or DefaultBinary
// when empty.
func New(binary string, logger *slog.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{binary: binary, logger: logger}
}

// Args builds the argv tail for a render of scriptPath.
//
// The scene class name is fixed: the rewriter forces generated scripts
// to define GeneratedScene.
func (c Config) Args(scriptPath string) ([]string, error) {
	quality := c.Quality
	if _, ok := qualityFlags[quality]; !ok {
		quality = "m"
	}
	args := []string{qualityFlags[quality]}

	if c.Resolution != "" {
		m := resolutionRe.FindStringSubmatch(c.Resolution)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrBadResolution, c.Resolution)
		}
		args = append(args, "-r", m[1]+","+m[2])
	}
	if c.FPS > 0 {
		args = append(args, "--fps", fmt.Sprintf("%d", c.FPS))
	}
	if c.OutputFile != "" {
		args = append(args, "-o", c.OutputFile)
	}
	args = append(args, scriptPath, "GeneratedScene")
	return args, nil
}

// Run renders scriptPath and captures the outcome.
//
// # Description
//
// Stdout and stderr are captured in full. A renderer crash or scene
// error surfaces as a non-zero ExitCode with nil error; only failures
// to launch at all (missing binary, bad config, canceled context)
// return an error.
//
// # Inputs
//   - ctx: Bounds the render; cancellation kills the process.
//   - scriptPath: Path to the scene script on disk.
//   - cfg: Render settings.
func (r *Runner) Run(ctx context.Context, scriptPath string, cfg Config) (Result, error) {
	args, err := cfg.Args(scriptPath)
	if err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("invoking renderer",
		slog.String("binary", r.binary),
		slog.String("args", strings.Join(args, " ")))

	err = cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	case errors.Is(err, exec.ErrNotFound):
		return Result{}, fmt.Errorf("%w: %q", ErrBinaryNotFound, r.binary)
	default:
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("running %s: %w", r.binary, err)
	}
}
