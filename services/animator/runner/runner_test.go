// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestConfigArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "defaults",
			cfg:  Config{},
			want: []string{"-qm", "scene.py", "GeneratedScene"},
		},
		{
			name: "low quality",
			cfg:  Config{Quality: "l"},
			want: []string{"-ql", "scene.py", "GeneratedScene"},
		},
		{
			name: "unknown quality falls back to medium",
			cfg:  Config{Quality: "z"},
			want: []string{"-qm", "scene.py", "GeneratedScene"},
		},
		{
			name: "full config",
			cfg:  Config{Quality: "h", Resolution: "1920x1080", FPS: 30, OutputFile: "out.mp4"},
			want: []string{"-qh", "-r", "1920,1080", "--fps", "30", "-o", "out.mp4", "scene.py", "GeneratedScene"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cfg.Args("scene.py")
			if err != nil {
				t.Fatalf("Args: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Args() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfigArgsBadResolution(t *testing.T) {
	for _, res := range []string{"1920", "x1080", "1920x", "wxh", "1920x1080x60"} {
		if _, err := (Config{Resolution: res}).Args("scene.py"); !errors.Is(err, ErrBadResolution) {
			t.Errorf("resolution %q: err = %v, want ErrBadResolution", res, err)
		}
	}
}

func TestRunMissingBinary(t *testing.T) {
	r := New("definitely-not-a-real-binary-name", nil)
	_, err := r.Run(context.Background(), "scene.py", Config{})
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Errorf("err = %v, want ErrBinaryNotFound", err)
	}
}

func TestRunCapturesExitCode(t *testing.T) {
	// "false" exits 1 without output; good enough to prove that a
	// renderer failure is a Result, not an error.
	r := New("false", nil)
	result, err := r.Run(context.Background(), "scene.py", Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.OK() {
		t.Error("non-zero exit reported as OK")
	}
	if result.ExitCode == 0 {
		t.Error("exit code not captured")
	}
}

func TestStderrTail(t *testing.T) {
	r := Result{Stderr: "a\nb\nc\nd\n"}
	if got := r.StderrTail(2); got != "c\nd" {
		t.Errorf("StderrTail(2) = %q", got)
	}
	if got := r.StderrTail(10); got != "a\nb\nc\nd" {
		t.Errorf("StderrTail(10) = %q", got)
	}
}
