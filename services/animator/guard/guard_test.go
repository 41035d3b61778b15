// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guard

import (
	"context"
	"strings"
	"testing"
)

// evaluate is a shorthand for running the guard over one script.
func evaluate(t *testing.T, script string) []Diagnostic {
	t.Helper()
	return New().Evaluate(context.Background(), script)
}

func TestEvaluateScripts(t *testing.T) {
	tests := []struct {
		name   string
		script string
		unsafe bool
		reason string
	}{
		{
			name:   "clean manim scene",
			script: "from manim import *\n\nclass GeneratedScene(Scene):\n    def construct(self):\n        self.play(Create(Circle()))\n",
			unsafe: false,
		},
		{
			name:   "plain os import",
			script: "import os\n",
			unsafe: true,
			reason: "banned import: os",
		},
		{
			name:   "aliased os import",
			script: "import os as operating_system\noperating_system.remove('x')\n",
			unsafe: true,
			reason: "banned import: os",
		},
		{
			name:   "from-import of shutil",
			script: "from shutil import rmtree\nrmtree('/tmp/x')\n",
			unsafe: true,
			reason: "banned from-import: shutil",
		},
		{
			name:   "from-import with alias",
			script: "from os import remove as rm\nrm('x')\n",
			unsafe: true,
			reason: "banned from-import: os",
		},
		{
			name:   "wildcard from banned module",
			script: "from subprocess import *\n",
			unsafe: true,
			reason: "banned from-import: subprocess",
		},
		{
			name:   "eval call",
			script: "eval('1 + 1')\n",
			unsafe: true,
			reason: "builtins.eval",
		},
		{
			name:   "exec call",
			script: "exec('print(1)')\n",
			unsafe: true,
			reason: "builtins.exec",
		},
		{
			name:   "dunder import",
			script: "mod = __import__('os')\n",
			unsafe: true,
			reason: "__import__",
		},
		{
			name:   "getattr probing",
			script: "fn = getattr(obj, 'remove')\n",
			unsafe: true,
			reason: "getattr",
		},
		{
			name:   "open for read",
			script: "data = open('assets/points.csv').read()\n",
			unsafe: false,
		},
		{
			name:   "open with explicit read mode",
			script: "data = open('assets/points.csv', 'r').read()\n",
			unsafe: false,
		},
		{
			name:   "open for write",
			script: "f = open('out.txt', 'w')\n",
			unsafe: true,
			reason: "write-open",
		},
		{
			name:   "open with mode keyword",
			script: "f = open('out.txt', mode='a')\n",
			unsafe: true,
			reason: "write-open",
		},
		{
			name:   "path write_text",
			script: "p.write_text('data')\n",
			unsafe: true,
			reason: "Path.write_text",
		},
		{
			name:   "destructive attr on unknown object",
			script: "thing.unlink()\n",
			unsafe: true,
			reason: "destructive attr call: unlink",
		},
		{
			name:   "syntax error fails closed",
			script: "def broken(:\n",
			unsafe: true,
			reason: "syntax error",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			findings := evaluate(t, tc.script)
			if got := len(findings) > 0; got != tc.unsafe {
				t.Fatalf("unsafe=%v, want %v (findings: %v)", got, tc.unsafe, findings)
			}
			if tc.reason == "" {
				return
			}
			for _, f := range findings {
				if strings.Contains(f.Reason, tc.reason) {
					return
				}
			}
			t.Errorf("no finding mentions %q in %v", tc.reason, findings)
		})
	}
}

func TestSubprocessAllowList(t *testing.T) {
	tests := []struct {
		name   string
		script string
		unsafe bool
	}{
		{
			name:   "ffmpeg list command",
			script: `subprocess.run(["ffmpeg", "-i", src, out])`,
			unsafe: false,
		},
		{
			name:   "ffprobe with path prefix",
			script: `subprocess.run(["/usr/bin/ffprobe", "-v", "quiet", src])`,
			unsafe: false,
		},
		{
			name:   "arbitrary binary",
			script: `subprocess.run(["curl", "http://evil.example"])`,
			unsafe: true,
		},
		{
			name:   "shell kwarg always unsafe",
			script: `subprocess.run("ffmpeg -i a.mp4 b.mp4", shell=True)`,
			unsafe: true,
		},
		{
			name:   "shell false is still unsafe",
			script: `subprocess.run(["ffmpeg"], shell=False)`,
			unsafe: true,
		},
		{
			name:   "variable command is unsafe",
			script: "cmd = build_cmd()\nsubprocess.run(cmd)\n",
			unsafe: true,
		},
		{
			name:   "os.system never allowed",
			script: `os.system("ffmpeg -i a.mp4 b.mp4")`,
			unsafe: true,
		},
		{
			name:   "popen arbitrary",
			script: `subprocess.Popen(["rm", "-rf", "/"])`,
			unsafe: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			findings := evaluate(t, tc.script)
			if got := len(findings) > 0; got != tc.unsafe {
				t.Errorf("unsafe=%v, want %v (findings: %v)", got, tc.unsafe, findings)
			}
		})
	}
}

func TestAliasAssignmentTracking(t *testing.T) {
	// Binding a dangerous callable to a new name must not launder it.
	script := "f = shutil.rmtree\nf('/tmp/x')\n"
	findings := evaluate(t, script)
	if len(findings) == 0 {
		t.Fatal("aliased shutil.rmtree call not detected")
	}
	found := false
	for _, f := range findings {
		if strings.Contains(f.Reason, "shutil.rmtree") {
			found = true
		}
	}
	if !found {
		t.Errorf("finding does not name shutil.rmtree: %v", findings)
	}
}

func TestModuleAliasResolution(t *testing.T) {
	script := "import subprocess as sp\nsp.run([\"curl\", \"http://x\"])\n"
	findings := evaluate(t, script)
	// The import itself is banned, and the aliased call must still
	// resolve to subprocess.run.
	sawCall := false
	for _, f := range findings {
		if strings.Contains(f.Reason, "subprocess.run") {
			sawCall = true
		}
	}
	if !sawCall {
		t.Errorf("aliased subprocess.run not resolved: %v", findings)
	}
}

func TestDiagnosticLineNumbers(t *testing.T) {
	script := "from manim import *\n\nimport os\n"
	findings := evaluate(t, script)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %v", findings)
	}
	if findings[0].Line != 3 {
		t.Errorf("line = %d, want 3", findings[0].Line)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	script := "import os\nimport sys\neval('x')\n"
	first := evaluate(t, script)
	second := evaluate(t, script)
	if len(first) != len(second) {
		t.Fatalf("finding counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("finding %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Line: 7, Reason: "banned import: os"}
	if got := d.String(); got != "L7: banned import: os" {
		t.Errorf("String() = %q", got)
	}
}
