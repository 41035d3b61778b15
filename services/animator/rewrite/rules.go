// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"regexp"
	"strings"
)

// sentinel marks a script that already carries the injected Angle
// helpers, so the injection rule never re-triggers on its own output.
const sentinel = "_safe_Angle_injected"

var (
	forbiddenImportRe = regexp.MustCompile(`(?m)^[ \t]*(?:import[ \t]+(?:os|sys|pathlib|subprocess|shutil|inspect)\b|from[ \t]+(?:os|sys|pathlib|subprocess|shutil|inspect)[ \t]+import\b)[^\n]*$`)

	sceneClassRe = regexp.MustCompile(`class\s+\w+\s*\(\s*Scene\s*\)\s*:`)

	plotCallRe = regexp.MustCompile(`(?s)(\b[A-Za-z_][A-Za-z0-9_]*\s*\.\s*plot\s*\(\s*[^,]+),([^)]*?)\)`)

	axesCallRe = regexp.MustCompile(`(?s)\bAxes\s*\((.*?)\)`)

	hgroupRe = regexp.MustCompile(`\bHGroup\s*\(`)

	tickLabelsRe = regexp.MustCompile(`([xy]_axis_config\s*=\s*\{[^}]*?)(["']?add_tick_labels["']?\s*:\s*)(True|False)`)

	mathTexFStringRe = regexp.MustCompile(`(MathTex|Tex)\s*\(\s*f(['"])`)

	manimStarImportRe = regexp.MustCompile(`(?m)^from\s+manim\s+import\s+\*[^\n]*\n`)
)

// rateFuncRenames maps deprecated CamelCase sine easings to the
// snake_case names current manim expects.
var rateFuncRenames = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\brate_func\s*=\s*easeInOutSine\b`), "rate_func=ease_in_out_sine"},
	{regexp.MustCompile(`\brate_func\s*=\s*easeInSine\b`), "rate_func=ease_in_sine"},
	{regexp.MustCompile(`\brate_func\s*=\s*easeOutSine\b`), "rate_func=ease_out_sine"},
}

// defaultRules is the fixed pipeline, in execution order.
func defaultRules() []Rule {
	return []Rule{
		{Name: "strip-forbidden-imports", Apply: stripForbiddenImports},
		{Name: "force-scene-class", Apply: forceSceneClass},
		{Name: "mathtex-fstring", Apply: unrollMathTexFStrings},
		{Name: "plot-range", Apply: collapsePlotRange},
		{Name: "axes-range", Apply: collapseAxesRanges},
		{Name: "hgroup-to-vgroup", Apply: hgroupToVGroup},
		{Name: "tick-labels", Apply: renameTickLabels},
		{Name: "rate-func-case", Apply: renameRateFuncs},
		{Name: "safe-angle", Apply: injectSafeAngle},
	}
}

// stripForbiddenImports comments out import lines the prompt forbids.
func stripForbiddenImports(code string) string {
	return forbiddenImportRe.ReplaceAllString(code, "# [stripped forbidden import]")
}

// forceSceneClass renames the first Scene subclass to GeneratedScene,
// the class name the renderer is invoked with.
func forceSceneClass(code string) string {
	loc := sceneClassRe.FindStringIndex(code)
	if loc == nil {
		return code
	}
	return code[:loc[0]] + "class GeneratedScene(Scene):" + code[loc[1]:]
}

// collapsePlotRange rewrites plot(..., x_min=a, x_max=b) into
// plot(..., x_range=[a, b]).
func collapsePlotRange(code string) string {
	return plotCallRe.ReplaceAllStringFunc(code, func(match string) string {
		m := plotCallRe.FindStringSubmatch(match)
		head, rest := m[1], m[2]

		xmin := takeArg(rest, "x_min")
		xmax := takeArg(rest, "x_max")
		if xmin == "" || xmax == "" {
			return match
		}
		rest = dropArg(rest, "x_min")
		rest = dropArg(rest, "x_max")

		xr := "x_range=[" + xmin + ", " + xmax + "]"
		if trimmed := strings.TrimSpace(rest); trimmed != "" {
			rest = xr + ", " + strings.Trim(trimmed, ",")
		} else {
			rest = xr
		}
		return head + ", " + rest + ")"
	})
}

// collapseAxesRanges rewrites Axes(x_min=, x_max=, y_min=, y_max=)
// into the x_range/y_range form, with the default step of 1.
func collapseAxesRanges(code string) string {
	return axesCallRe.ReplaceAllStringFunc(code, func(match string) string {
		m := axesCallRe.FindStringSubmatch(match)
		args := m[1]

		xmin, xmax := takeArg(args, "x_min"), takeArg(args, "x_max")
		ymin, ymax := takeArg(args, "y_min"), takeArg(args, "y_max")
		out := args
		for _, key := range []string{"x_min", "x_max", "y_min", "y_max"} {
			out = dropArg(out, key)
		}
		if xmin != "" && xmax != "" && !strings.Contains(out, "x_range") {
			out = "x_range=[" + xmin + ", " + xmax + ", 1], " + strings.Trim(strings.TrimSpace(out), ",")
		}
		if ymin != "" && ymax != "" && !strings.Contains(out, "y_range") {
			out = "y_range=[" + ymin + ", " + ymax + ", 1], " + strings.Trim(strings.TrimSpace(out), ",")
		}
		return "Axes(" + out + ")"
	})
}

// hgroupToVGroup replaces HGroup, which current manim does not ship.
func hgroupToVGroup(code string) string {
	return hgroupRe.ReplaceAllString(code, "VGroup(")
}

// renameTickLabels rewrites the removed add_tick_labels axis-config key.
func renameTickLabels(code string) string {
	return tickLabelsRe.ReplaceAllString(code, `$1"include_numbers": $3`)
}

// renameRateFuncs converts deprecated CamelCase easings.
func renameRateFuncs(code string) string {
	for _, rename := range rateFuncRenames {
		code = rename.re.ReplaceAllString(code, rename.replacement)
	}
	return code
}

// takeArg extracts the value of "key=value" from an argument string.
func takeArg(args, key string) string {
	re := regexp.MustCompile(`\b` + key + `\s*=\s*([^,)\s]+)`)
	if m := re.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	return ""
}

// dropArg removes "key=value," from an argument string.
func dropArg(args, key string) string {
	re := regexp.MustCompile(`\b` + key + `\s*=\s*[^,)\s]+\s*,?\s*`)
	return re.ReplaceAllString(args, "")
}

// unrollMathTexFStrings converts f-strings inside MathTex/Tex calls
// into a concatenation of plain literals and str() of the interpolated
// expressions. F-strings break LaTeX braces; the concatenation form
// renders the same text without fighting the brace syntax.
func unrollMathTexFStrings(code string) string {
	for {
		loc := mathTexFStringRe.FindStringSubmatchIndex(code)
		if loc == nil {
			return code
		}

		quote := code[loc[4]:loc[5]]
		bodyStart := loc[5]
		bodyEnd, ok := findFStringEnd(code, bodyStart, quote[0])
		if !ok {
			return code
		}

		expr := convertFStringBody(code[bodyStart:bodyEnd], quote)
		// Replace from the 'f' prefix through the closing quote.
		fStart := loc[4] - 1
		code = code[:fStart] + expr + code[bodyEnd+1:]
	}
}

// findFStringEnd scans to the closing quote of an f-string body,
// honoring escapes and skipping quotes nested in interpolations.
func findFStringEnd(code string, start int, quote byte) (int, bool) {
	depth := 0
	for i := start; i < len(code); i++ {
		switch code[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case quote:
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// convertFStringBody turns an f-string body into "lit" + str(expr) + ...
func convertFStringBody(body, quote string) string {
	var parts []string
	i := 0
	for i < len(body) {
		if body[i] == '{' {
			end := strings.IndexByte(body[i+1:], '}')
			if end < 0 {
				break
			}
			expr := strings.TrimSpace(body[i+1 : i+1+end])
			parts = append(parts, "str("+expr+")")
			i += end + 2
			continue
		}
		next := strings.IndexByte(body[i:], '{')
		if next < 0 {
			next = len(body) - i
		}
		lit := body[i : i+next]
		lit = strings.ReplaceAll(lit, `\`, `\\`)
		lit = strings.ReplaceAll(lit, quote, `\`+quote)
		parts = append(parts, quote+lit+quote)
		i += next
	}
	if len(parts) == 0 {
		return quote + quote
	}
	return strings.Join(parts, " + ")
}

// injectSafeAngle wraps Angle() with a crash-proof helper. Near-parallel
// lines make Angle() raise; the helper returns an empty VGroup instead.
// Injected once, right after the manim star import.
func injectSafeAngle(code string) string {
	if !strings.Contains(code, "Angle(") || strings.Contains(code, sentinel) {
		return code
	}

	// Rewrite user calls first so the helper's own Angle() survives.
	code = regexp.MustCompile(`\bAngle\s*\(`).ReplaceAllString(code, "_safe_Angle(")

	insertAt := 0
	if loc := manimStarImportRe.FindStringIndex(code); loc != nil {
		insertAt = loc[1]
	}
	return code[:insertAt] + safeAngleHelper + code[insertAt:]
}

// safeAngleHelper is the injected helper block. The sentinel assignment
// doubles as the injection marker.
const safeAngleHelper = `# --- injected: safe Angle wrapper & label helper ---
_safe_Angle_injected = True

def _safe_Angle(obj1, obj2, **kwargs):
    '''
    Return an Angle(l1, l2, ...) if it is well-defined.
    If the two lines are (near-)parallel or something explodes,
    return an empty VGroup() instead of raising.
    '''
    try:
        l1 = Line(obj1.get_start(), obj1.get_end())
        l2 = Line(obj2.get_start(), obj2.get_end())
        v1 = l1.get_end() - l1.get_start()
        v2 = l2.get_end() - l2.get_start()
        cross = v1[0]*v2[1] - v1[1]*v2[0]
        if abs(cross) < 1e-7:
            return VGroup()
        return Angle(l1, l2, **kwargs)
    except Exception:
        return VGroup()

def _safe_angle_label(angle_mobj, tex_str, scale_val=0.7):
    '''
    Safely create "[angle arc] + [MathTex label]" as one VGroup.
    Returns an empty VGroup when the angle arc itself is empty.
    '''
    if len(angle_mobj.points) == 0:
        return VGroup()

    label = MathTex(tex_str).scale(scale_val)
    try:
        label.move_to(angle_mobj.point_from_proportion(0.5))
    except Exception:
        label.move_to(angle_mobj.get_center())

    return VGroup(angle_mobj, label)
`
