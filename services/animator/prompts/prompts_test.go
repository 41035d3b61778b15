// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFill(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "single placeholder",
			template: "Request: {request}",
			vars:     map[string]string{"request": "draw a circle"},
			want:     "Request: draw a circle",
		},
		{
			name:     "missing placeholder marked",
			template: "Code: {current_code}",
			vars:     nil,
			want:     "Code: <current_code:MISSING>",
		},
		{
			name:     "mixed present and missing",
			template: "{request} / {error_tail}",
			vars:     map[string]string{"request": "x"},
			want:     "x / <error_tail:MISSING>",
		},
		{
			name:     "no placeholders",
			template: "static text",
			vars:     map[string]string{"request": "ignored"},
			want:     "static text",
		},
		{
			name:     "non-identifier braces untouched",
			template: "dict = {1: 2}",
			vars:     nil,
			want:     "dict = {1: 2}",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fill(tc.template, tc.vars); got != tc.want {
				t.Errorf("Fill() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDefaultTemplatesHavePlaceholders(t *testing.T) {
	store := Default()
	checks := []struct {
		name        string
		template    string
		placeholder string
	}{
		{"translate", store.Translate, "{request}"},
		{"generate request", store.Generate, "{request}"},
		{"generate bundles", store.Generate, "{code_bundles}"},
		{"patch code", store.Patch, "{current_code}"},
		{"patch errors", store.Patch, "{error_tail}"},
	}
	for _, c := range checks {
		if !strings.Contains(c.template, c.placeholder) {
			t.Errorf("%s: placeholder %s missing", c.name, c.placeholder)
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	store := Load(filepath.Join(t.TempDir(), "nope.toml"), nil)
	if store.Generate != Default().Generate {
		t.Error("missing file did not fall back to defaults")
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.toml")
	content := `[patch]
template = "custom patch prompt {current_code}"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store := Load(path, nil)
	if store.Patch != "custom patch prompt {current_code}" {
		t.Errorf("patch not overridden: %q", store.Patch)
	}
	// Unspecified entries keep their defaults.
	if store.Generate != Default().Generate {
		t.Error("generate template lost its default")
	}
}

func TestLoadEmptyTemplateKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.toml")
	if err := os.WriteFile(path, []byte("[patch]\ntemplate = \"  \"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := Load(path, nil)
	if store.Patch != Default().Patch {
		t.Error("blank override replaced the default")
	}
}

func TestLoadGarbageFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.toml")
	if err := os.WriteFile(path, []byte("not toml {{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := Load(path, nil)
	if store.Patch != Default().Patch {
		t.Error("garbage file did not fall back to defaults")
	}
}
