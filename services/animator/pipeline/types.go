// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline runs the bounded generate/validate/execute/patch
// loop that turns a natural-language request into a rendered scene.
package pipeline

import "context"

// State is one node of the pipeline state machine.
type State string

const (
	// StateGenerate obtains the initial script from the generator.
	StateGenerate State = "GENERATE"

	// StateRewrite applies the compatibility rewriter, once.
	StateRewrite State = "REWRITE"

	// StateValidate runs the static validation pipeline.
	StateValidate State = "VALIDATE"

	// StateExecute hands the script to the renderer.
	StateExecute State = "EXECUTE"

	// StatePatch requests and applies a corrective diff.
	StatePatch State = "PATCH"

	// StateSuccess is the terminal success state.
	StateSuccess State = "SUCCESS"

	// StateFatal is the terminal failure state.
	StateFatal State = "FATAL"
)

// AllStates returns every pipeline state.
func AllStates() []State {
	return []State{
		StateGenerate,
		StateRewrite,
		StateValidate,
		StateExecute,
		StatePatch,
		StateSuccess,
		StateFatal,
	}
}

// IsTerminal reports whether the state ends the run.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFatal
}

// Outcome is the closed set of labels a caller can observe.
type Outcome string

const (
	// OutcomeSuccess means the script rendered cleanly.
	OutcomeSuccess Outcome = "success"

	// OutcomePolicyRejected means the security guard denied the
	// script; no rendering was attempted on it.
	OutcomePolicyRejected Outcome = "policy-rejected"

	// OutcomeExhausted means the run failed after spending its
	// attempt budget, or a collaborator failed fatally.
	OutcomeExhausted Outcome = "exhausted-with-error"
)

// Generator is the external generation collaborator.
type Generator interface {
	// GenerateScript produces the initial scene script for a request.
	GenerateScript(ctx context.Context, request string) (string, error)

	// GeneratePatch produces a unified diff fixing the given script,
	// given the accumulated error context.
	GeneratePatch(ctx context.Context, script, errorContext string) (string, error)
}

// Executor is the external execution collaborator.
type Executor interface {
	// Execute renders the script. A failed render is an ExecResult
	// with a non-zero exit code, not an error; errors are reserved
	// for failures to invoke the renderer at all.
	Execute(ctx context.Context, script string) (ExecResult, error)
}

// ExecResult captures one execution collaborator invocation.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Config bounds and tunes the retry loop.
type Config struct {
	// MaxAttempts caps the number of patch cycles. Zero or negative
	// means no patching: the initial script gets exactly one render.
	MaxAttempts int

	// CountApplyFailures controls whether a diff that fails to apply
	// consumes attempt budget. When false, apply failures re-request
	// a diff without spending budget, bounded separately by the
	// consecutive-failure cap.
	CountApplyFailures bool
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        3,
		CountApplyFailures: true,
	}
}

// AttemptRecord is the log entry for one patch cycle.
type AttemptRecord struct {
	// Attempt is the 1-based patch cycle number.
	Attempt int

	// PatchApplied reports whether the diff applied cleanly.
	PatchApplied bool

	// ApplyError holds the apply failure reason, if any.
	ApplyError string

	// PatchStats is the compact hunks/added/removed summary, when the
	// diff was parseable by the stats pass.
	PatchStats string

	// LintFindings counts repairable diagnostics after this cycle's
	// validation.
	LintFindings int

	// ExitCode is the renderer's exit code for this cycle, or -1 when
	// the cycle never reached execution.
	ExitCode int
}

// Result is what a completed run reports.
type Result struct {
	// Outcome is the closed-set label.
	Outcome Outcome

	// Script is the final script text (the last one validated).
	Script string

	// Attempts is the number of patch cycles consumed.
	Attempts int

	// Records holds one entry per patch cycle.
	Records []AttemptRecord

	// FatalReason explains a non-success outcome.
	FatalReason string
}
