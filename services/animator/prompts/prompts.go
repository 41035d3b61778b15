// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package prompts holds the prompt templates for the translate,
// generate and patch model calls. Templates ship as baked-in defaults
// and can be overridden per deployment from a TOML file.
package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// Store holds the three prompt templates used by the pipeline.
type Store struct {
	// Translate turns a Japanese request into a concise English one.
	Translate string

	// Generate produces the initial scene script.
	Generate string

	// Patch produces a minimal unified diff against a failing script.
	Patch string
}

// promptFile is the TOML override shape:
//
//	[translate]
//	template = "..."
type promptFile struct {
	Translate promptEntry `toml:"translate"`
	Generate  promptEntry `toml:"generate"`
	Patch     promptEntry `toml:"patch"`
}

type promptEntry struct {
	Template string `toml:"template"`
}

// Default returns the baked-in store.
func Default() *Store {
	return &Store{
		Translate: defaultTranslate,
		Generate:  defaultGenerate,
		Patch:     defaultPatch,
	}
}

// Load builds a Store from a TOML file layered over the defaults.
//
// # Description
//
// A missing or unreadable file, or a file with empty template entries,
// falls back to the defaults silently except for a warning log. Prompt
// overrides are an operator convenience and must never take the
// service down.
//
// # Inputs
//   - path: TOML file path; "" means defaults only.
//
// # Outputs
//   - *Store: Always non-nil.
func Load(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	store := Default()
	if path == "" {
		return store
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("prompt override file unreadable, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return store
	}

	var file promptFile
	if err := toml.Unmarshal(data, &file); err != nil {
		logger.Warn("prompt override file unparseable, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return store
	}

	if t := strings.TrimSpace(file.Translate.Template); t != "" {
		store.Translate = file.Translate.Template
	}
	if t := strings.TrimSpace(file.Generate.Template); t != "" {
		store.Generate = file.Generate.Template
	}
	if t := strings.TrimSpace(file.Patch.Template); t != "" {
		store.Patch = file.Patch.Template
	}
	return store
}

// placeholderRe matches "{name}" slots. Doubled braces are literal
// text, which keeps Python dict literals in templates intact.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Fill substitutes {name} placeholders from vars.
//
// # Description
//
// Unknown placeholders are replaced with "<name:MISSING>" instead of
// failing; a half-filled prompt still lets the model do something
// useful, and the marker makes the gap obvious in artifact logs.
func Fill(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return fmt.Sprintf("<%s:MISSING>", name)
	})
}
