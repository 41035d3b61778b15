// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command sceneforge generates Manim animations from natural-language
// requests, via a one-shot CLI run or an HTTP API server.
//
// Usage:
//
//	sceneforge animate "the unit circle and sine"
//	sceneforge serve --addr :8080
//	sceneforge check scene.py
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
