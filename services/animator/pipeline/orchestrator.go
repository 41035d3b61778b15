// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sceneforge/sceneforge/services/animator/artifacts"
	"github.com/sceneforge/sceneforge/services/animator/diffpatch"
	"github.com/sceneforge/sceneforge/services/animator/rewrite"
	"github.com/sceneforge/sceneforge/services/animator/validate"
)

// Orchestrator drives one request through the state machine.
//
// # Description
//
// The orchestrator owns the loop's mutable state; collaborators are
// invoked synchronously and never see it. The rewriter runs exactly
// once, on the generated script. Patched scripts are never rewritten
// so diffs stay minimal. Cancellation is checked between state
// transitions only, never mid-validation, and always unwinds to a
// terminal state.
//
// # Thread Safety
//
// Safe for concurrent use; each Run call keeps its state on its own
// stack.
type Orchestrator struct {
	sm        *StateMachine
	gen       Generator
	exec      Executor
	rewriter  *rewrite.Rewriter
	validator *validate.Pipeline
	cfg       Config
	logger    *slog.Logger
}

// New builds an Orchestrator around the two external collaborators.
func New(gen Generator, exec Executor, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if gen == nil {
		return nil, ErrNoGenerator
	}
	if exec == nil {
		return nil, ErrNoExecutor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sm:        NewStateMachine(),
		gen:       gen,
		exec:      exec,
		rewriter:  rewrite.New(),
		validator: validate.New(logger),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Run executes the full pipeline for one request.
//
// # Description
//
// Returns a Result for every completed run, including failed ones; the
// error return is non-nil only for cooperative cancellation. For a
// fixed sequence of collaborator responses the trajectory and final
// state are fully determined.
//
// # Inputs
//   - ctx: Cancellation checked between state transitions.
//   - request: English scene request fed to the generator.
//   - w: Per-request artifact writer; nil disables persistence.
func (o *Orchestrator) Run(ctx context.Context, request string, w *artifacts.Writer) (Result, error) {
	state := StateGenerate
	res := Result{}

	var (
		script      string
		lintContext string
		lastExec    ExecResult
		applyStreak int
		// cycle counts every patch round including ones that do not
		// consume budget, so records and artifact names stay unique.
		cycle int
	)

	applyCap := o.cfg.MaxAttempts
	if applyCap < 1 {
		applyCap = 1
	}

	move := func(to State) {
		next, err := o.sm.Transition(state, to)
		if err != nil {
			// Unreachable unless the loop below diverges from the
			// transition table; fail the run instead of corrupting it.
			o.logger.Error("illegal transition", slog.String("error", err.Error()))
			res.Outcome = OutcomeExhausted
			res.FatalReason = err.Error()
			state = StateFatal
			return
		}
		o.logger.Debug("state transition",
			slog.String("from", string(state)),
			slog.String("to", string(to)))
		state = next
	}

	fatal := func(outcome Outcome, reason string) {
		res.Outcome = outcome
		res.FatalReason = reason
		w.Write("final_error.log", reason)
		move(StateFatal)
	}

	for !state.IsTerminal() {
		if err := ctx.Err(); err != nil {
			res.Outcome = OutcomeExhausted
			res.FatalReason = fmt.Sprintf("canceled in %s: %v", state, err)
			res.Script = script
			return res, err
		}

		switch state {
		case StateGenerate:
			raw, err := o.gen.GenerateScript(ctx, request)
			if err != nil {
				fatal(OutcomeExhausted, fmt.Sprintf("%v: %v", ErrTransport, err))
				continue
			}
			w.Write("raw_code.txt", raw)
			script = normalizeScript(raw)
			move(StateRewrite)

		case StateRewrite:
			rewritten, applied := o.rewriter.Rewrite(script)
			if len(applied) > 0 {
				o.logger.Info("compat rules applied",
					slog.String("rules", strings.Join(applied, ",")))
				w.Write("compat_rules.log", strings.Join(applied, "\n"))
				w.Write("compat_rewrite.diff", diffpatch.Derive(script, rewritten))
			}
			script = rewritten
			w.Write("generated_scene.initial.py", script)
			move(StateValidate)

		case StateValidate:
			report := o.validator.Validate(ctx, script)
			if report.HasSecurity() {
				fatal(OutcomePolicyRejected, securityReason(report))
				continue
			}
			lintContext = report.LintSummary()
			if n := len(res.Records); n > 0 {
				res.Records[n-1].LintFindings = len(report.Findings)
			}
			move(StateExecute)

		case StateExecute:
			execRes, err := o.exec.Execute(ctx, script)
			if err != nil {
				fatal(OutcomeExhausted, fmt.Sprintf("executor failed: %v", err))
				continue
			}
			lastExec = execRes
			w.WriteAttempt("manim_stdout", cycle, ".txt", execRes.Stdout)
			w.WriteAttempt("manim_stderr", cycle, ".txt", execRes.Stderr)
			if n := len(res.Records); n > 0 {
				res.Records[n-1].ExitCode = execRes.ExitCode
			}

			switch {
			case execRes.ExitCode == 0:
				res.Outcome = OutcomeSuccess
				move(StateSuccess)
			case res.Attempts >= o.cfg.MaxAttempts:
				fatal(OutcomeExhausted, fmt.Sprintf("%v after %d attempts: %s",
					ErrExhausted, res.Attempts, tail(execRes.Stderr, 20)))
			default:
				move(StatePatch)
			}

		case StatePatch:
			res.Attempts++
			cycle++
			rec := AttemptRecord{Attempt: cycle, ExitCode: -1}

			diffText, err := o.gen.GeneratePatch(ctx, script, errorContext(lastExec, lintContext))
			if err != nil {
				res.Records = append(res.Records, rec)
				fatal(OutcomeExhausted, fmt.Sprintf("%v during patch %d: %v",
					ErrTransport, cycle, err))
				continue
			}
			w.WriteAttempt("patch_diff", cycle, ".diff", diffText)
			if stats, statsErr := diffpatch.Stats(diffText); statsErr == nil {
				rec.PatchStats = stats.String()
				o.logger.Info("patch received",
					slog.Int("attempt", cycle),
					slog.String("stats", stats.String()))
			}

			patched, err := diffpatch.Apply(script, diffText)
			if err != nil {
				applyStreak++
				rec.ApplyError = err.Error()
				res.Records = append(res.Records, rec)
				w.WriteAttempt("patch_failure", cycle, ".log",
					fmt.Sprintf("apply failed: %v\n%s", err, diffText))
				o.logger.Warn("patch apply failed",
					slog.Int("attempt", cycle),
					slog.String("error", err.Error()))

				if !o.cfg.CountApplyFailures {
					res.Attempts--
				}
				if applyStreak >= applyCap {
					fatal(OutcomeExhausted, fmt.Sprintf(
						"%d consecutive patches failed to apply: %v", applyStreak, err))
					continue
				}
				// Best available script is the unchanged one.
				move(StateValidate)
				continue
			}

			applyStreak = 0
			rec.PatchApplied = true
			res.Records = append(res.Records, rec)
			script = patched
			w.WriteAttempt("patched_code", cycle, ".py", script)
			move(StateValidate)
		}
	}

	res.Script = script
	if state == StateSuccess {
		o.logger.Info("pipeline succeeded", slog.Int("attempts", res.Attempts))
	} else {
		o.logger.Warn("pipeline failed",
			slog.String("outcome", string(res.Outcome)),
			slog.String("reason", res.FatalReason))
	}
	return res, nil
}

// normalizeScript strips the markdown code fences models wrap scripts in.
func normalizeScript(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
	}
	if strings.HasSuffix(cleaned, "```") {
		if idx := strings.LastIndex(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}
	return strings.TrimSpace(cleaned)
}

// errorContext assembles the repair context for a patch request:
// renderer stderr first, static findings appended.
func errorContext(execRes ExecResult, lintContext string) string {
	errText := execRes.Stderr
	if errText == "" {
		errText = "(no stderr)"
	}
	errText = tail(errText, 80)
	if lintContext != "" {
		errText += "\n\n[STATIC CHECKS]\n" + lintContext
	}
	return errText
}

// securityReason flattens a report's security findings into one line.
func securityReason(report validate.Report) string {
	var reasons []string
	for _, f := range report.Findings {
		if f.Class == validate.ClassSecurity {
			reasons = append(reasons, f.String())
		}
	}
	return fmt.Sprintf("%v: %s", ErrPolicyViolation, strings.Join(reasons, "; "))
}

// tail returns the last n lines of text.
func tail(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
