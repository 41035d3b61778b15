// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffpatch

import (
	"errors"
	"strings"
	"testing"
)

const sampleScript = `from manim import *

class GeneratedScene(Scene):
    def construct(self):
        circle = Circle()
        self.play(Create(circle))
        self.wait(1)
`

func TestApplySimpleReplace(t *testing.T) {
	patch := `@@ -5,1 +5,1 @@
-        circle = Circle()
+        circle = Circle(color=BLUE)
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "Circle(color=BLUE)") {
		t.Errorf("replacement missing:\n%s", got)
	}
	if strings.Contains(got, "circle = Circle()\n") {
		t.Errorf("old line survived:\n%s", got)
	}
}

func TestApplyInsertOnly(t *testing.T) {
	patch := `@@ -7,0 +7,1 @@
+        self.wait(2)
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "self.wait(2)") {
		t.Errorf("inserted line missing:\n%s", got)
	}
	// All original lines survive an insert-only patch.
	for _, line := range strings.Split(strings.TrimSuffix(sampleScript, "\n"), "\n") {
		if !strings.Contains(got, line) {
			t.Errorf("original line lost: %q", line)
		}
	}
}

func TestApplyStripsFences(t *testing.T) {
	patch := "```diff\n@@ -5,1 +5,1 @@\n-        circle = Circle()\n+        circle = Square()\n```"
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "Square()") {
		t.Errorf("fenced patch not applied:\n%s", got)
	}
}

func TestApplySkipsFileHeadersAndPreamble(t *testing.T) {
	patch := `Here is the fix you asked for:
--- a/scene.py
+++ b/scene.py
@@ -5,1 +5,1 @@
-        circle = Circle()
+        circle = Square()
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "Square()") {
		t.Errorf("patch with preamble not applied:\n%s", got)
	}
}

func TestApplyToleratesDriftedContext(t *testing.T) {
	// Context text in the patch does not match the original; the
	// original's line must win.
	patch := `@@ -4,2 +4,2 @@
     def construct(self):  # model hallucinated this comment
-        circle = Circle()
+        circle = Square()
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.Contains(got, "hallucinated") {
		t.Errorf("patch context text leaked into output:\n%s", got)
	}
	if !strings.Contains(got, "    def construct(self):") {
		t.Errorf("original context line lost:\n%s", got)
	}
}

func TestApplyBlankLineActsAsContext(t *testing.T) {
	// Line 2 of the sample is empty; generators drop the leading
	// space on empty context lines.
	patch := `@@ -1,3 +1,3 @@
 from manim import *

-class GeneratedScene(Scene):
+class GeneratedScene(MovingCameraScene):
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "MovingCameraScene") {
		t.Errorf("class line not replaced:\n%s", got)
	}
	if strings.Count(got, "\n\n") != strings.Count(sampleScript, "\n\n") {
		t.Errorf("blank line count changed:\n%s", got)
	}
}

func TestApplyMultipleHunks(t *testing.T) {
	patch := `@@ -3,1 +3,1 @@
-class GeneratedScene(Scene):
+class GeneratedScene(MovingCameraScene):
@@ -7,1 +7,1 @@
-        self.wait(1)
+        self.wait(3)
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "MovingCameraScene") || !strings.Contains(got, "self.wait(3)") {
		t.Errorf("not all hunks applied:\n%s", got)
	}
}

func TestApplyPreservesTrailingNewline(t *testing.T) {
	patch := "@@ -5,1 +5,1 @@\n-        circle = Circle()\n+        circle = Square()\n"

	withNewline, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.HasSuffix(withNewline, "\n") {
		t.Errorf("trailing newline lost")
	}

	bare := strings.TrimSuffix(sampleScript, "\n")
	withoutNewline, err := Apply(bare, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.HasSuffix(withoutNewline, "\n") {
		t.Errorf("trailing newline invented")
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  error
	}{
		{"empty text", "", ErrEmptyPatch},
		{"fences only", "```diff\n```", ErrEmptyPatch},
		{"no hunks", "just some chatter\nwithout a header\n", ErrNoHunks},
		{"hunk past eof", "@@ -99,1 +99,1 @@\n-x\n+y\n", ErrHunkOutOfRange},
		{"context past eof", "@@ -6,3 +6,3 @@\n         self.play(Create(circle))\n         self.wait(1)\n         self.wait(2)\n", ErrContextBeyondEOF},
		{"delete past eof", "@@ -7,2 +7,1 @@\n-        self.wait(1)\n-extra\n", ErrDeleteBeyondEOF},
		{"unknown tag", "@@ -5,1 +5,1 @@\n*\n", ErrUnknownTag},
		{"malformed second header", "@@ -3,1 +3,1 @@\n-class GeneratedScene(Scene):\n+class X(Scene):\n@@ bogus\n", ErrBadHunkHeader},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(sampleScript, tc.patch)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestApplyOverlappingHunksRejected(t *testing.T) {
	patch := `@@ -5,1 +5,1 @@
-        circle = Circle()
+        circle = Square()
@@ -3,1 +3,1 @@
-class GeneratedScene(Scene):
+class X(Scene):
`
	_, err := Apply(sampleScript, patch)
	if !errors.Is(err, ErrHunkOutOfRange) {
		t.Errorf("out-of-order hunks accepted: %v", err)
	}
}

func TestApplyFailureLeavesNoPartialResult(t *testing.T) {
	// First hunk is fine, second is out of range; the whole apply
	// must fail with an empty result.
	patch := `@@ -5,1 +5,1 @@
-        circle = Circle()
+        circle = Square()
@@ -99,1 +99,1 @@
-x
+y
`
	got, err := Apply(sampleScript, patch)
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "" {
		t.Errorf("partial result returned: %q", got)
	}
}

func TestApplyTrailingNoiseIgnored(t *testing.T) {
	patch := `@@ -5,1 +5,1 @@
-        circle = Circle()
+        circle = Square()
That should fix the syntax error. Let me know if anything else breaks.
`
	got, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(got, "Square()") {
		t.Errorf("patch not applied:\n%s", got)
	}
	if strings.Contains(got, "fix the syntax error") {
		t.Errorf("chatter leaked into output:\n%s", got)
	}
}

func TestApplyHeaderOnlyPatchIsNoOp(t *testing.T) {
	got, err := Apply(sampleScript, "@@ -1,0 +1,0 @@\n")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != sampleScript {
		t.Errorf("header-only patch changed the buffer:\ngot:\n%s\nwant:\n%s", got, sampleScript)
	}
}

func TestApplyDeterministic(t *testing.T) {
	patch := "@@ -5,1 +5,1 @@\n-        circle = Circle()\n+        circle = Square()\n"
	first, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	second, err := Apply(sampleScript, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if first != second {
		t.Errorf("apply not deterministic")
	}
}

func TestDeriveRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{
			name: "single line change",
			a:    sampleScript,
			b:    strings.Replace(sampleScript, "Circle()", "Square()", 1),
		},
		{
			name: "line insertion",
			a:    "a\nb\nc\n",
			b:    "a\nb\nnew\nc\n",
		},
		{
			name: "line removal",
			a:    "a\nb\nc\nd\n",
			b:    "a\nd\n",
		},
		{
			name: "full rewrite",
			a:    "old content\n",
			b:    "completely different\ntext\n",
		},
		{
			name: "identical inputs",
			a:    sampleScript,
			b:    sampleScript,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			patch := Derive(tc.a, tc.b)
			got, err := Apply(tc.a, patch)
			if err != nil {
				t.Fatalf("Apply(Derive): %v\npatch:\n%s", err, patch)
			}
			if got != tc.b {
				t.Errorf("round trip failed:\ngot:\n%q\nwant:\n%q\npatch:\n%s", got, tc.b, patch)
			}
		})
	}
}

func TestParseHunkHeaderDefaults(t *testing.T) {
	// Lengths are optional in hunk headers.
	patch, err := Parse("@@ -5 +5 @@\n-        circle = Circle()\n+        circle = Square()\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(patch.Hunks) != 1 {
		t.Fatalf("hunks = %d", len(patch.Hunks))
	}
	h := patch.Hunks[0]
	if h.OldStart != 5 || h.OldLen != 1 || h.NewStart != 5 || h.NewLen != 1 {
		t.Errorf("header parsed as %s", h.Header())
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"\n", 1},
	}
	for _, tc := range tests {
		if got := len(splitLines(tc.in)); got != tc.want {
			t.Errorf("splitLines(%q) = %d lines, want %d", tc.in, got, tc.want)
		}
	}
}
