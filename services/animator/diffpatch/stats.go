// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffpatch

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Stats parses patch text with go-diff and summarizes it.
//
// # Description
//
// Used for attempt logging only; the lenient Apply path never depends
// on it. Fences and file header lines are stripped first so bare hunk
// streams parse. Patches too mangled for a strict parser return an
// error and the caller logs without stats.
func Stats(patchText string) (PatchStats, error) {
	text := stripFences(patchText)

	var body []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			continue
		}
		body = append(body, line)
	}

	hunks, err := diff.ParseHunks([]byte(strings.Join(body, "\n") + "\n"))
	if err != nil {
		return PatchStats{}, fmt.Errorf("parsing hunks: %w", err)
	}

	stats := PatchStats{Hunks: len(hunks)}
	for _, hunk := range hunks {
		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				stats.LinesAdded++
			case strings.HasPrefix(line, "-"):
				stats.LinesRemoved++
			}
		}
	}
	return stats, nil
}
