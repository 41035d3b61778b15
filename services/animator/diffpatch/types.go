// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package diffpatch applies model-produced unified diffs to an in-memory
// script buffer.
//
// # Description
//
// The engine targets single-file patches emitted by an LLM repair step.
// It is deliberately lenient where generators drift (code fences,
// chatter before the first hunk, context lines that do not byte-match
// the original) and strict where leniency would corrupt the buffer
// (hunk ordering, reads past end of file). A failed apply never returns
// a partially patched buffer.
//
// # Thread Safety
//
// All functions are pure; they are safe for concurrent use.
package diffpatch

import "fmt"

// LineKind categorizes hunk body lines.
type LineKind string

const (
	// LineContext represents unchanged context lines.
	LineContext LineKind = " "

	// LineInsert represents inserted lines.
	LineInsert LineKind = "+"

	// LineDelete represents deleted lines.
	LineDelete LineKind = "-"

	// LineBlank represents a raw blank line inside a hunk body.
	// Generators routinely drop the leading space from empty context
	// lines; the engine treats them as context.
	LineBlank LineKind = ""
)

// String returns the tag character for the line kind.
func (k LineKind) String() string {
	return string(k)
}

// PatchLine is a single tagged line within a hunk body.
type PatchLine struct {
	// Kind is the line tag (context, insert, delete, blank).
	Kind LineKind

	// Text is the line payload without the tag character.
	Text string
}

// Hunk is one contiguous change region within a unified diff.
type Hunk struct {
	// OldStart is the 1-based starting line in the original buffer.
	OldStart int

	// OldLen is the number of original lines the hunk covers.
	OldLen int

	// NewStart is the 1-based starting line in the patched buffer.
	NewStart int

	// NewLen is the number of patched lines the hunk produces.
	NewLen int

	// Lines are the tagged body lines in order.
	Lines []PatchLine
}

// Header returns the unified diff header for this hunk.
func (h *Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLen, h.NewStart, h.NewLen)
}

// Patch is an ordered sequence of hunks parsed from one diff text.
type Patch struct {
	// Hunks are applied in document order.
	Hunks []*Hunk
}

// PatchStats summarizes a patch for attempt logging.
type PatchStats struct {
	// Hunks is the number of hunks in the patch.
	Hunks int

	// LinesAdded counts '+' lines across all hunks.
	LinesAdded int

	// LinesRemoved counts '-' lines across all hunks.
	LinesRemoved int
}

// String returns a compact stats string like "2 hunks, +12 -3".
func (s PatchStats) String() string {
	return fmt.Sprintf("%d hunks, +%d -%d", s.Hunks, s.LinesAdded, s.LinesRemoved)
}
