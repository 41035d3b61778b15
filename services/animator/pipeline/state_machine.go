// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import "fmt"

// StateMachine enforces the pipeline transition graph:
//
//	GENERATE → REWRITE           : Initial script obtained
//	GENERATE → FATAL             : Generator transport failure
//	REWRITE  → VALIDATE          : Compatibility pass applied
//	VALIDATE → EXECUTE           : No security findings
//	VALIDATE → FATAL             : Security finding (policy-rejected)
//	EXECUTE  → SUCCESS           : Renderer exit code zero
//	EXECUTE  → PATCH             : Render failed, budget remains
//	EXECUTE  → FATAL             : Render failed, budget exhausted
//	PATCH    → VALIDATE          : Diff applied (or apply failure recorded)
//	PATCH    → FATAL             : Patch transport failure or apply-failure cap
//
// Thread Safety:
//
//	StateMachine is immutable after construction and safe for
//	concurrent use.
type StateMachine struct {
	transitions map[State]map[State]bool
}

// NewStateMachine builds the machine with all valid transitions.
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[State]map[State]bool),
	}
	for _, state := range AllStates() {
		sm.transitions[state] = make(map[State]bool)
	}

	sm.addTransition(StateGenerate, StateRewrite)
	sm.addTransition(StateGenerate, StateFatal)

	sm.addTransition(StateRewrite, StateValidate)

	sm.addTransition(StateValidate, StateExecute)
	sm.addTransition(StateValidate, StateFatal)

	sm.addTransition(StateExecute, StateSuccess)
	sm.addTransition(StateExecute, StatePatch)
	sm.addTransition(StateExecute, StateFatal)

	sm.addTransition(StatePatch, StateValidate)
	sm.addTransition(StatePatch, StateFatal)

	return sm
}

func (sm *StateMachine) addTransition(from, to State) {
	sm.transitions[from][to] = true
}

// CanTransition reports whether from → to is in the table.
func (sm *StateMachine) CanTransition(from, to State) bool {
	if toMap, ok := sm.transitions[from]; ok {
		return toMap[to]
	}
	return false
}

// Transition validates and performs a transition.
//
// # Outputs
//   - State: The new state on success.
//   - error: ErrInvalidTransition when from → to is not in the table.
func (sm *StateMachine) Transition(from, to State) (State, error) {
	if !sm.CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// ValidTransitionsFrom lists the allowed successors of a state.
func (sm *StateMachine) ValidTransitionsFrom(from State) []State {
	var out []State
	for _, to := range AllStates() {
		if sm.CanTransition(from, to) {
			out = append(out, to)
		}
	}
	return out
}
