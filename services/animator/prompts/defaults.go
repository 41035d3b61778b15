// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package prompts

// Placeholder names used by the default templates: request, code_bundles,
// current_code, error_tail.

const defaultTranslate = `You are a precise technical translator and prompt composer.
Translate the following Japanese description into concise English for a
Manim scene request. Keep essential math terms, remove fluff, and keep
it under 100 words.

[Japanese]
{request}
`

const defaultGenerate = `You are a senior Manim engineer (v0.19.0, Community).
Task: Write ONE self-contained Python file that defines exactly ONE class GeneratedScene(Scene) and nothing else.
Follow these HARD RULES:

[HARD RULES]
- Use manim==0.19.0 API strictly.
- One class only: class GeneratedScene(Scene):
- No external files, no I/O, no images, no sounds.
- Set a BLACK background (use self.camera.background_color=BLACK in construct()).
- Use only: from manim import *  and  import numpy as np  (optionally import math).
- Render dashed lines with 0.19-safe constructs (e.g., DashedVMobject(..., num_dashes=...)).
- Do NOT use deprecated params like x_min/x_max for Axes or plot; use x_range/y_range and x_range for plot.
- All math angles are radians unless degree text labeling is explicitly asked; when showing degrees in text, convert from radians safely.
- Only import manim, numpy, math. Do not import: os, sys, pathlib, subprocess, shutil, inspect.
- Do not assign to config; no external file I/O.
- Use snake_case rate functions (e.g., linear, smooth, there_and_back, ease_in_out_sine). Never CamelCase.
- Do NOT use MathTex/Tex for continuously changing numbers; use DecimalNumber/Integer.
- Avoid always_redraw for static objects; prefer one-time creation + add_updater to move/update.
- Restrict color constants to: BLACK, WHITE, BLUE, BLUE_A, BLUE_C, GREEN, GREEN_C, ORANGE, RED, RED_C, TEAL, YELLOW.

[HOW TO USE REFERENCES]
- The reference code bundles below (multiple .py) are examples you can adapt.
- Your output must still be a single file with one GeneratedScene.

[ENGLISH USER REQUEST]
{request}

[REFERENCE CODE BUNDLES]
{code_bundles}

[OUTPUT FORMAT]
- Reply ONLY with Python code. No explanation and no backticks.
- The file must import from manim import * and define class GeneratedScene(Scene).
`

const defaultPatch = `You are a senior Python/Manim engineer. The Manim version is 0.19.0 (Community).

Goal: Produce a minimal unified-diff patch that fixes the error(s) without rewriting the whole file.
Patch only the necessary lines. Keep the overall structure and style unchanged.

[HARD RULES]
- Keep exactly ONE class: GeneratedScene(Scene).
- Use only: from manim import *, import numpy as np, optional import math.
- No forbidden imports: os, sys, pathlib, subprocess, shutil, inspect.
- Do not assign to config.
- Use Manim 0.19.0 APIs (x_range/y_range, snake_case rate functions).
- Prefer adding try/except guards over big refactors.
- If MathTex has dynamic numbers, prefer DecimalNumber.
- Avoid non-ASCII in Tex/MathTex strings.
- Restrict color constants to: BLACK, WHITE, BLUE, BLUE_A, BLUE_C, GREEN, GREEN_C, ORANGE, RED, RED_C, TEAL, YELLOW.

[CURRENT FILE: generated_scene.py]
{current_code}

[ERROR LOG (tail)]
{error_tail}

[OUTPUT FORMAT]
- Output ONLY a unified diff. No prose, no code fences.
- Must start with:
  --- a/generated_scene.py
  +++ b/generated_scene.py
  @@ ...
- Keep the patch as small as possible. Do not reformat unrelated lines.
`
