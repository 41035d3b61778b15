// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package artifacts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNilWriterIsSafe(t *testing.T) {
	var w *Writer
	w.Write("x.txt", "content")
	w.WriteAttempt("patch_diff", 1, ".diff", "content")
	if w.Root() != "" {
		t.Errorf("Root() = %q, want empty", w.Root())
	}
}

func TestNewWriterDisabled(t *testing.T) {
	if w := NewWriter("", "req-1", nil); w != nil {
		t.Error("empty base dir should return nil writer")
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base, "req-42", nil)
	if w == nil {
		t.Fatal("writer is nil")
	}
	if !strings.HasSuffix(w.Root(), "_req-42") {
		t.Errorf("Root() = %q, want *_req-42 suffix", w.Root())
	}

	w.Write("user_request.txt", "draw a circle")
	w.WriteAttempt("manim_stderr", 0, ".txt", "traceback")

	got, err := os.ReadFile(filepath.Join(w.Root(), "user_request.txt"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(got) != "draw a circle" {
		t.Errorf("content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(w.Root(), "manim_stderr_0.txt")); err != nil {
		t.Errorf("attempt artifact missing: %v", err)
	}
}
