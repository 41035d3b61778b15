// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rewrite normalizes known manim API-incompatibility patterns
// in generated scripts before validation.
//
// # Description
//
// A fixed, ordered list of deterministic text-rewrite rules. Each
// rule's output feeds the next. Rules never touch their own injected
// text: the helper-injection rule is guarded by a sentinel marker.
// Rewriting runs once per generation, on the freshly generated script
// only; patched scripts are left alone so diffs stay minimal.
package rewrite

// Rule is one named rewrite step.
type Rule struct {
	// Name identifies the rule in diagnostic logs.
	Name string

	// Apply transforms the script. It must be deterministic and must
	// not re-trigger on text it injected itself.
	Apply func(string) string
}

// Rewriter runs the rule pipeline.
//
// Thread Safety: safe to share; rules hold no state.
type Rewriter struct {
	rules []Rule
}

// New creates a Rewriter with the default rule pipeline.
func New() *Rewriter {
	return &Rewriter{rules: defaultRules()}
}

// Rewrite runs every rule in order and reports which rules changed
// anything. The applied-rule list is for logging only; callers must
// not branch on it.
func (r *Rewriter) Rewrite(script string) (string, []string) {
	var applied []string
	for _, rule := range r.rules {
		next := rule.Apply(script)
		if next != script {
			applied = append(applied, rule.Name)
		}
		script = next
	}
	return script, applied
}
