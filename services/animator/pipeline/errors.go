// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import "errors"

// Sentinel errors for the pipeline package.
var (
	// ErrInvalidTransition indicates a state transition outside the
	// machine's transition table. Reaching it is an orchestrator bug.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPolicyViolation indicates the script was denied by the
	// security guard. Never retried.
	ErrPolicyViolation = errors.New("script violates safety policy")

	// ErrTransport indicates the generation collaborator was
	// unreachable or returned a transport-level failure. Not retried;
	// retrying burns attempt budget on a dead wire.
	ErrTransport = errors.New("generation collaborator unreachable")

	// ErrExhausted indicates the attempt budget ran out without a
	// successful render.
	ErrExhausted = errors.New("attempt budget exhausted")

	// ErrNoGenerator indicates the orchestrator was built without a
	// generation collaborator.
	ErrNoGenerator = errors.New("generator is required")

	// ErrNoExecutor indicates the orchestrator was built without an
	// execution collaborator.
	ErrNoExecutor = errors.New("executor is required")
)
