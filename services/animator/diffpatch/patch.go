// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffpatch

import (
	"fmt"
	"regexp"
	"strings"
)

// hunkHeaderRe matches "@@ -oldStart[,oldLen] +newStart[,newLen] @@".
var hunkHeaderRe = regexp.MustCompile(`^@@\s*-(\d+)(?:,(\d+))?\s+\+(\d+)(?:,(\d+))?\s*@@`)

// fenceOpenRe matches an opening code fence, optionally language-tagged.
var fenceOpenRe = regexp.MustCompile("^```(?:diff)?\\s*")

// fenceCloseRe matches a trailing code fence.
var fenceCloseRe = regexp.MustCompile("\\s*```$")

// stripFences removes surrounding code-fence markers from patch text.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Parse parses unified-diff text into a Patch.
//
// # Description
//
// Parsing is tolerant of the ways LLMs mangle diffs: surrounding code
// fences are stripped, "--- a/x" / "+++ b/x" header lines are skipped,
// and chatter before the first hunk header is ignored. Once at least
// one body line of a hunk has been consumed, a line that is neither a
// tagged body line nor a hunk header terminates parsing; everything
// after it is trailing noise. A malformed "@@" line between hunks is a
// structured error, as is an unrecognized tag character at the start of
// a hunk body.
//
// # Inputs
//
//   - patchText: Raw diff text as returned by the generator.
//
// # Outputs
//
//   - *Patch: Parsed hunks in document order.
//   - error: ErrEmptyPatch, ErrNoHunks, ErrBadHunkHeader or ErrUnknownTag.
func Parse(patchText string) (*Patch, error) {
	text := stripFences(patchText)
	if text == "" {
		return nil, ErrEmptyPatch
	}

	patch := &Patch{}
	var cur *Hunk

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			cur = &Hunk{
				OldStart: atoiDefault(m[1], 1),
				OldLen:   atoiDefault(m[2], 1),
				NewStart: atoiDefault(m[3], 1),
				NewLen:   atoiDefault(m[4], 1),
			}
			patch.Hunks = append(patch.Hunks, cur)
			continue
		}

		if cur == nil {
			// Header region: file headers and generator preamble.
			continue
		}

		if strings.HasPrefix(line, "@@") {
			return nil, fmt.Errorf("%w: %q", ErrBadHunkHeader, truncate(line, 40))
		}

		if line == "" {
			cur.Lines = append(cur.Lines, PatchLine{Kind: LineBlank})
			continue
		}

		switch line[0] {
		case ' ':
			cur.Lines = append(cur.Lines, PatchLine{Kind: LineContext, Text: line[1:]})
		case '-':
			cur.Lines = append(cur.Lines, PatchLine{Kind: LineDelete, Text: line[1:]})
		case '+':
			cur.Lines = append(cur.Lines, PatchLine{Kind: LineInsert, Text: line[1:]})
		default:
			if len(cur.Lines) == 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnknownTag, line[0])
			}
			// Trailing noise after a hunk body; stop parsing.
			return patch, nil
		}
	}

	if len(patch.Hunks) == 0 {
		return nil, ErrNoHunks
	}
	return patch, nil
}

// Apply applies unified-diff text to the original buffer.
//
// # Description
//
// Maintains a read cursor into the original lines. Lines between the
// cursor and each hunk start are copied verbatim. Within a hunk,
// context lines copy the original line (the patch's context text is not
// required to byte-match), delete lines skip the original line, insert
// lines emit the patch's text, and raw blank lines act as context. The
// returned buffer preserves the original's trailing-newline convention.
// On any error the original is untouched and nothing partial is
// returned.
//
// # Inputs
//
//   - original: Current script text.
//   - patchText: Unified-diff text, optionally fenced.
//
// # Outputs
//
//   - string: The patched text.
//   - error: Parse errors, ErrHunkOutOfRange, ErrContextBeyondEOF or
//     ErrDeleteBeyondEOF.
func Apply(original, patchText string) (string, error) {
	patch, err := Parse(patchText)
	if err != nil {
		return "", err
	}
	return ApplyPatch(original, patch)
}

// ApplyPatch applies an already-parsed patch to the original buffer.
func ApplyPatch(original string, patch *Patch) (string, error) {
	trailingNewline := strings.HasSuffix(original, "\n")
	origLines := splitLines(original)

	var out []string
	cursor := 0

	for _, hunk := range patch.Hunks {
		start := hunk.OldStart - 1
		if start < cursor || start > len(origLines) {
			return "", fmt.Errorf("%w: %s", ErrHunkOutOfRange, hunk.Header())
		}
		out = append(out, origLines[cursor:start]...)
		cursor = start

		for _, line := range hunk.Lines {
			switch line.Kind {
			case LineContext:
				if cursor >= len(origLines) {
					return "", fmt.Errorf("%w: %s", ErrContextBeyondEOF, hunk.Header())
				}
				out = append(out, origLines[cursor])
				cursor++
			case LineDelete:
				if cursor >= len(origLines) {
					return "", fmt.Errorf("%w: %s", ErrDeleteBeyondEOF, hunk.Header())
				}
				cursor++
			case LineInsert:
				out = append(out, line.Text)
			case LineBlank:
				out = append(out, "")
				if cursor < len(origLines) {
					cursor++
				}
			}
		}
	}

	out = append(out, origLines[cursor:]...)

	result := strings.Join(out, "\n")
	if trailingNewline {
		result += "\n"
	}
	return result, nil
}

// Derive mechanically builds a patch that rewrites a into b.
//
// The patch contains a single hunk spanning the differing region, with
// the longest common prefix and suffix left outside it. Deriving from
// identical inputs yields a header-only patch that applies as a no-op.
func Derive(a, b string) string {
	aLines := splitLines(a)
	bLines := splitLines(b)

	prefix := 0
	for prefix < len(aLines) && prefix < len(bLines) && aLines[prefix] == bLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(aLines)-prefix && suffix < len(bLines)-prefix &&
		aLines[len(aLines)-1-suffix] == bLines[len(bLines)-1-suffix] {
		suffix++
	}

	oldLen := len(aLines) - prefix - suffix
	newLen := len(bLines) - prefix - suffix

	var sb strings.Builder
	fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", prefix+1, oldLen, prefix+1, newLen)
	for _, line := range aLines[prefix : prefix+oldLen] {
		sb.WriteString("-" + line + "\n")
	}
	for _, line := range bLines[prefix : prefix+newLen] {
		sb.WriteString("+" + line + "\n")
	}
	return sb.String()
}

// splitLines splits text into lines the way Python's splitlines does:
// the trailing newline does not produce an empty final element, and the
// empty string has no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// atoiDefault parses a decimal string, returning def when empty.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// truncate limits a string for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
