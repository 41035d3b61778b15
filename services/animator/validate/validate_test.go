// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validate

import (
	"context"
	"strings"
	"testing"
)

const cleanScript = `from manim import *

class GeneratedScene(Scene):
    def construct(self):
        circle = Circle()
        self.play(Create(circle))
        self.wait(1)
`

func TestValidateCleanScript(t *testing.T) {
	p := New(nil)
	report := p.Validate(context.Background(), cleanScript)
	if !report.OK() {
		t.Errorf("clean script rejected: %v", report.Findings)
	}
}

func TestValidateSyntaxError(t *testing.T) {
	p := New(nil)
	report := p.Validate(context.Background(), "def broken(:\n    pass\n")
	if report.OK() {
		t.Fatal("syntax error not detected")
	}
	found := false
	for _, f := range report.Findings {
		if f.Class == ClassLint && strings.Contains(f.Reason, "syntax") {
			found = true
		}
	}
	if !found {
		t.Errorf("no lint syntax finding in %v", report.Findings)
	}
	if report.HasSecurity() {
		t.Errorf("bare syntax error escalated to security: %v", report.Findings)
	}
}

func TestValidateSecurityFinding(t *testing.T) {
	script := "import os\nos.remove('x')\n"
	p := New(nil)
	report := p.Validate(context.Background(), script)
	if !report.HasSecurity() {
		t.Fatalf("os import not flagged as security: %v", report.Findings)
	}
}

func TestValidateRunsAllChecks(t *testing.T) {
	// A script with a security violation and a lint problem at once.
	// Both must appear in a single report.
	script := "import os\nlabel = MathTex(\"三角形\")\n"
	p := New(nil)
	report := p.Validate(context.Background(), script)

	if !report.HasSecurity() {
		t.Errorf("security finding missing: %v", report.Findings)
	}
	hasLint := false
	for _, f := range report.Findings {
		if f.Class == ClassLint {
			hasLint = true
		}
	}
	if !hasLint {
		t.Errorf("lint finding missing: %v", report.Findings)
	}
}

func TestCheckTexContent(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"ascii mathtex", `m = MathTex("x^2 + y^2 = r^2")`, false},
		{"cjk in mathtex", "m = MathTex(\"円の面積\")", true},
		{"cjk in tex", "m = Tex(\"証明\")", true},
		{"cjk outside tex call", "# コメント\ncircle = Circle()", false},
		{"cjk in text mobject", "t = Text(\"三角形\")", false},
		{"cjk comment after clean tex call", "m = MathTex(\"x^2\")  # 二乗", false},
		{"cjk inside call with trailing comment", "m = MathTex(\"面積\")  # ok?", true},
		{"paren inside tex string literal", `m = MathTex(r"\left( x \right)")  # 注`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := len(checkTexContent(tc.line)) > 0
			if got != tc.want {
				t.Errorf("checkTexContent(%q) flagged=%v, want %v", tc.line, got, tc.want)
			}
		})
	}
}

func TestLintSummaryExcludesSecurity(t *testing.T) {
	r := Report{Findings: []Finding{
		{Class: ClassSecurity, Line: 1, Reason: "banned import: os"},
		{Class: ClassLint, Line: 5, Reason: "python syntax error"},
	}}
	summary := r.LintSummary()
	if strings.Contains(summary, "banned import") {
		t.Errorf("security finding leaked into lint summary: %q", summary)
	}
	if !strings.Contains(summary, "L5: python syntax error") {
		t.Errorf("lint finding missing from summary: %q", summary)
	}
}

func TestValidateDeterministic(t *testing.T) {
	script := "import os\ndef broken(:\n"
	p := New(nil)
	first := p.Validate(context.Background(), script)
	second := p.Validate(context.Background(), script)
	if len(first.Findings) != len(second.Findings) {
		t.Fatalf("finding counts differ: %d vs %d", len(first.Findings), len(second.Findings))
	}
	for i := range first.Findings {
		if first.Findings[i] != second.Findings[i] {
			t.Errorf("finding %d differs: %v vs %v", i, first.Findings[i], second.Findings[i])
		}
	}
}

func TestValidateCanceledContextIsNotSecurity(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(nil).Validate(ctx, cleanScript)
	if report.HasSecurity() {
		t.Errorf("cancellation classified as a policy violation: %v", report.Findings)
	}
}
