// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validate aggregates every static check a generated script
// must pass before it is handed to the renderer. A single Validate
// call runs the syntax check, the security guard, and the lint rules
// and returns the union of their findings, so a caller always sees
// the complete picture in one pass.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/sceneforge/sceneforge/services/animator/guard"
)

// Class partitions findings by how the retry loop may respond to them.
type Class string

const (
	// ClassSecurity findings terminate the run. No amount of model
	// repair is trusted to fix a policy violation.
	ClassSecurity Class = "security"
	// ClassLint findings are sent back to the model for a patch.
	ClassLint Class = "lint"
)

// Finding is one diagnostic produced by a validation check.
type Finding struct {
	Class  Class
	Line   int
	Reason string
}

// String renders the finding in the "L<line>: <reason>" form used in
// repair prompts and logs.
//
// # Description
//
//	Formats the finding for human and model consumption.
//
// # Outputs
//   - string: "L12: banned import: os" style text.
func (f Finding) String() string {
	return fmt.Sprintf("L%d: %s", f.Line, f.Reason)
}

// Report is the outcome of validating one script.
type Report struct {
	Findings []Finding
}

// OK reports whether the script passed every check.
func (r Report) OK() bool {
	return len(r.Findings) == 0
}

// HasSecurity reports whether any finding is a security violation.
func (r Report) HasSecurity() bool {
	for _, f := range r.Findings {
		if f.Class == ClassSecurity {
			return true
		}
	}
	return false
}

// LintSummary joins the lint findings into a single block of text for
// the repair prompt. Security findings are excluded; they are never
// sent back for repair.
func (r Report) LintSummary() string {
	var lines []string
	for _, f := range r.Findings {
		if f.Class == ClassLint {
			lines = append(lines, f.String())
		}
	}
	return strings.Join(lines, "\n")
}

// Pipeline runs the full set of static checks over a script.
//
// # Thread Safety
//
// Safe for concurrent use. Parsers are created per call and the guard
// is stateless between calls.
type Pipeline struct {
	guard  *guard.Guard
	logger *slog.Logger
}

// New constructs a Pipeline with a fresh guard.
func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		guard:  guard.New(),
		logger: logger,
	}
}

// Validate runs every check and returns the union of their findings.
// All checks always run, even when an early one fails, so a repair
// prompt can address everything at once.
//
// # Description
//
//	Checks the script for Python syntax errors, policy violations
//	found by the security guard, and lint problems that are known to
//	break rendering.
//
// # Inputs
//   - ctx: Cancels the tree-sitter parses.
//   - script: Python source to validate.
//
// # Outputs
//   - Report: All findings, classified as security or lint.
func (p *Pipeline) Validate(ctx context.Context, script string) Report {
	var report Report

	report.Findings = append(report.Findings, p.checkSyntax(ctx, script)...)
	for _, d := range p.guard.Evaluate(ctx, script) {
		// The guard fails closed on unparseable input, but a bare
		// syntax error is the model's to fix. checkSyntax already
		// reported it as lint, so drop the duplicate here.
		if strings.HasPrefix(d.Reason, "syntax error") {
			continue
		}
		// A parse aborted by cancellation is not a policy verdict.
		// The caller's context check owns that outcome.
		if strings.HasPrefix(d.Reason, "parse failed") && ctx.Err() != nil {
			continue
		}
		report.Findings = append(report.Findings, Finding{
			Class:  ClassSecurity,
			Line:   d.Line,
			Reason: d.Reason,
		})
	}
	report.Findings = append(report.Findings, checkTexContent(script)...)

	if len(report.Findings) > 0 {
		p.logger.Debug("validation findings",
			"count", len(report.Findings),
			"security", report.HasSecurity())
	}
	return report
}

// checkSyntax parses the script and reports the first syntax error.
func (p *Pipeline) checkSyntax(ctx context.Context, script string) []Finding {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(script))
	if err != nil {
		return []Finding{{
			Class:  ClassLint,
			Line:   1,
			Reason: fmt.Sprintf("parse failed: %v", err),
		}}
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	line := 1
	if bad := firstErrorNode(root); bad != nil {
		line = int(bad.StartPoint().Row) + 1
	}
	return []Finding{{
		Class:  ClassLint,
		Line:   line,
		Reason: "python syntax error",
	}}
}

// firstErrorNode walks the tree and returns the first ERROR or
// MISSING node in document order.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// checkTexContent flags non-ASCII characters inside MathTex and Tex
// string arguments. LaTeX chokes on raw unicode from the model, most
// often CJK text that belongs in a Text() mobject instead.
func checkTexContent(script string) []Finding {
	var findings []Finding
	for i, line := range strings.Split(script, "\n") {
		idx := texCallIndex(line)
		if idx < 0 {
			continue
		}
		open := idx + strings.Index(line[idx:], "(")
		end := texCallEnd(line, open)
		for _, r := range line[idx:end] {
			if r > unicode.MaxASCII {
				findings = append(findings, Finding{
					Class:  ClassLint,
					Line:   i + 1,
					Reason: fmt.Sprintf("non-ASCII character %q inside MathTex/Tex", r),
				})
				break
			}
		}
	}
	return findings
}

// texCallEnd returns the offset just past the paren matching the one
// at open, skipping parens inside string literals. Falls back to end
// of line when the call spans lines or is unbalanced.
func texCallEnd(line string, open int) int {
	depth := 0
	var quote byte
	for j := open; j < len(line); j++ {
		c := line[j]
		if quote != 0 {
			switch c {
			case '\\':
				j++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(line)
}

// texCallIndex returns the offset of the first MathTex( or Tex( call
// on the line, or -1. A preceding identifier character means the
// match is part of a longer name and is skipped.
func texCallIndex(line string) int {
	for _, name := range []string{"MathTex(", "Tex("} {
		at := 0
		for {
			rel := strings.Index(line[at:], name)
			if rel < 0 {
				break
			}
			idx := at + rel
			if idx == 0 || !isIdentRune(rune(line[idx-1])) {
				return idx
			}
			at = idx + len(name)
		}
	}
	return -1
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
