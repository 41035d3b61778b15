// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package artifacts persists the paper trail of one generation run:
// prompts, raw model output, diffs, patched scripts and renderer
// stderr, one file per step under a timestamped request directory.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Writer persists run artifacts under a per-request directory.
//
// # Description
//
// A nil *Writer is valid and writes nothing, so callers never guard
// their writes. Artifact persistence is best-effort: individual write
// failures are logged and swallowed, never propagated into the
// pipeline's control flow.
//
// # Thread Safety
//
// Safe for concurrent use as long as names are distinct, which the
// attempt-numbered naming scheme guarantees.
type Writer struct {
	root   string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at <baseDir>/<stamp>_<requestID>.
//
// # Inputs
//   - baseDir: Artifacts base directory; "" disables persistence and
//     returns a nil Writer.
//   - requestID: Unique id of this generation run.
//
// # Outputs
//   - *Writer: nil when disabled or the directory cannot be created.
func NewWriter(baseDir, requestID string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if baseDir == "" {
		return nil
	}

	stamp := time.Now().Format("20060102_150405")
	root := filepath.Join(baseDir, fmt.Sprintf("%s_%s", stamp, requestID))
	if err := os.MkdirAll(root, 0o755); err != nil {
		logger.Warn("artifact directory creation failed, persistence disabled",
			slog.String("dir", root),
			slog.String("error", err.Error()))
		return nil
	}
	return &Writer{root: root, logger: logger}
}

// Root returns the request directory, or "" for a nil Writer.
func (w *Writer) Root() string {
	if w == nil {
		return ""
	}
	return w.root
}

// Write persists one named artifact.
func (w *Writer) Write(name, content string) {
	if w == nil {
		return
	}
	path := filepath.Join(w.root, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		w.logger.Warn("artifact write failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// WriteAttempt persists an artifact tagged with an attempt number,
// like "patch_diff_2.diff".
func (w *Writer) WriteAttempt(prefix string, attempt int, ext, content string) {
	if w == nil {
		return
	}
	w.Write(fmt.Sprintf("%s_%d%s", prefix, attempt, ext), content)
}
