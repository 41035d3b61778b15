// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffpatch

import "errors"

// Sentinel errors for the diffpatch package.
var (
	// ErrEmptyPatch indicates the patch text was empty after fence stripping.
	ErrEmptyPatch = errors.New("empty patch")

	// ErrNoHunks indicates no hunk header was found in the patch text.
	ErrNoHunks = errors.New("no hunks found")

	// ErrHunkOutOfRange indicates a hunk start before the cursor or past
	// the end of the buffer.
	ErrHunkOutOfRange = errors.New("hunk position out of range")

	// ErrContextBeyondEOF indicates a context line would read past the
	// end of the original buffer.
	ErrContextBeyondEOF = errors.New("context beyond end of file")

	// ErrDeleteBeyondEOF indicates a delete line would consume past the
	// end of the original buffer.
	ErrDeleteBeyondEOF = errors.New("deletion beyond end of file")

	// ErrUnknownTag indicates an unrecognized line tag at the start of a
	// hunk body.
	ErrUnknownTag = errors.New("unexpected diff tag")

	// ErrBadHunkHeader indicates a malformed @@ header after the first
	// hunk was already parsed.
	ErrBadHunkHeader = errors.New("malformed hunk header")
)
