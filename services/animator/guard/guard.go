// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package guard statically proves a generated script performs no
// destructive filesystem operations, dangerous subprocess invocation,
// or metaprogramming-based sandbox escape.
//
// # Description
//
// The guard parses the script with tree-sitter, resolves aliases and
// simple assignment rebindings in a single traversal, and denies any
// reference whose fully-qualified form hits a deny-list. It is a
// conservative allow/deny scanner, not a sound prover: when a target
// cannot be resolved statically (getattr, variable subprocess
// commands, unresolvable receivers with destructive method names), it
// denies. Unparseable input is unsafe (fail-closed).
//
// # Thread Safety
//
// Evaluate is safe for concurrent use; the parser and symbol table are
// created per call.
package guard

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Diagnostic is one static-check finding.
type Diagnostic struct {
	// Line is the 1-based source line of the finding (0 when unknown).
	Line int

	// Reason is a human-readable explanation.
	Reason string
}

// String formats the diagnostic the way it is fed back to the model.
func (d Diagnostic) String() string {
	return fmt.Sprintf("L%d: %s", d.Line, d.Reason)
}

// Guard evaluates scripts against the strict safety policy.
//
// Thread Safety: safe to share between goroutines; Evaluate keeps no
// state between calls.
type Guard struct{}

// New creates a Guard.
func New() *Guard {
	return &Guard{}
}

// Evaluate scans a script and returns its findings.
//
// # Description
//
// An empty result means the script is safe to hand to the sandbox.
// Evaluation has no side effects and is idempotent: identical input
// yields an identical diagnostic set.
//
// # Inputs
//
//   - ctx: Context for cancellation of the parse.
//   - script: Python source text.
//
// # Outputs
//
//   - []Diagnostic: Findings in document order; empty means safe.
func (g *Guard) Evaluate(ctx context.Context, script string) []Diagnostic {
	source := []byte(script)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return []Diagnostic{{Line: 0, Reason: fmt.Sprintf("parse failed: %v", err)}}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return []Diagnostic{{Line: 0, Reason: "parse produced no syntax tree"}}
	}
	if root.HasError() {
		line := 0
		if errNode := firstErrorNode(root); errNode != nil {
			line = int(errNode.StartPoint().Row) + 1
		}
		return []Diagnostic{{Line: line, Reason: "syntax error: script is unparseable"}}
	}

	v := &visitor{source: source, symbols: newSymbolTable()}
	v.walk(root)
	return v.findings
}

// visitor holds per-evaluation state for one traversal.
type visitor struct {
	source   []byte
	symbols  *symbolTable
	findings []Diagnostic
}

func (v *visitor) deny(node *sitter.Node, format string, args ...any) {
	v.findings = append(v.findings, Diagnostic{
		Line:   int(node.StartPoint().Row) + 1,
		Reason: fmt.Sprintf(format, args...),
	})
}

// walk visits nodes in document order so bindings are recorded before
// the calls that use them.
func (v *visitor) walk(node *sitter.Node) {
	switch node.Type() {
	case "import_statement":
		v.visitImport(node)
	case "import_from_statement":
		v.visitImportFrom(node)
	case "assignment":
		v.visitAssignment(node)
	case "call":
		v.visitCall(node)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		v.walk(node.Child(i))
	}
}

// visitImport handles "import x" and "import x as y".
func (v *visitor) visitImport(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			path := child.Content(v.source)
			v.symbols.bindModule(path, path)
			if bannedImportModules[topModule(path)] {
				v.deny(node, "banned import: %s", path)
			}
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			path := name.Content(v.source)
			v.symbols.bindModule(alias.Content(v.source), path)
			if bannedImportModules[topModule(path)] {
				v.deny(node, "banned import: %s", path)
			}
		}
	}
}

// visitImportFrom handles "from x import y [as z]" and wildcards.
func (v *visitor) visitImportFrom(node *sitter.Node) {
	module := ""
	if mod := node.ChildByFieldName("module_name"); mod != nil {
		module = mod.Content(v.source)
	}
	if module == "" {
		return
	}
	top := topModule(strings.TrimLeft(module, "."))

	sawImport := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "dotted_name":
			if !sawImport {
				continue // module path, already taken from the field
			}
			name := child.Content(v.source)
			fqn := module + "." + name
			v.symbols.bindSymbol(name, fqn)
			if bannedImportModules[top] {
				v.deny(node, "banned from-import: %s", fqn)
			}
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			fqn := module + "." + nameNode.Content(v.source)
			v.symbols.bindSymbol(aliasNode.Content(v.source), fqn)
			if bannedImportModules[top] {
				v.deny(node, "banned from-import: %s", fqn)
			}
		case "wildcard_import":
			if bannedImportModules[top] {
				v.deny(node, "banned from-import: %s.*", module)
			}
		}
	}
}

// visitAssignment records "name = <resolvable reference>" rebindings.
func (v *visitor) visitAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}
	if fqn := v.symbols.resolve(right, v.source); fqn != "" {
		v.symbols.bindAssignment(left.Content(v.source), fqn)
	}
}

// visitCall applies the call-site deny rules.
func (v *visitor) visitCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	// Dynamic attribute lookup defeats static resolution; deny
	// regardless of arguments.
	if fn.Type() == "identifier" {
		switch fn.Content(v.source) {
		case "getattr":
			v.deny(node, "dynamic getattr call detected")
		case "__import__":
			v.deny(node, "__import__ detected")
		}
	}

	fqn := v.symbols.resolve(fn, v.source)

	if fqn == "builtins.open" || fqn == "io.open" || strings.HasSuffix(fqn, ".open") {
		if v.isWriteMode(node) {
			v.deny(node, "write-open detected")
		}
	}

	if fn.Type() == "attribute" {
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			name := attr.Content(v.source)
			if destructiveAttrNames[name] {
				v.deny(node, "destructive attr call: %s", name)
			}
			if pathWriteMethods[name] {
				v.deny(node, "Path.%s detected", name)
			}
		}
	}

	if bannedFQNs[fqn] {
		if subprocessFQNs[fqn] {
			if v.subprocessDanger(node, fqn) {
				v.deny(node, "%s dangerous", fqn)
			}
		} else {
			v.deny(node, "%s detected", fqn)
		}
	}
}

// isWriteMode reports whether an open()-style call uses a write, append,
// create or exclusive mode token, positional or keyword.
func (v *visitor) isWriteMode(call *sitter.Node) bool {
	positional, keywords := v.callArgs(call)

	mode := ""
	if len(positional) >= 2 {
		if s, ok := v.stringLiteral(positional[1]); ok {
			mode = s
		}
	}
	if kw, ok := keywords["mode"]; ok {
		if s, ok := v.stringLiteral(kw); ok {
			mode = s
		}
	}
	if mode == "" {
		return false
	}
	return strings.ContainsAny(mode, writeModeTokens)
}

// subprocessDanger decides whether a subprocess/system-style call is
// denied. shell=True (however passed) is automatic; otherwise the
// leading command token must be a literal on the executable allow-list.
func (v *visitor) subprocessDanger(call *sitter.Node, fqn string) bool {
	positional, keywords := v.callArgs(call)

	// A shell keyword at all is a violation; its value does not matter
	// because a falsy-looking expression cannot be proven falsy.
	if _, ok := keywords["shell"]; ok {
		return true
	}

	if len(positional) == 0 {
		return true
	}
	arg0 := positional[0]

	// os.system hands its argument to a shell; never allowed.
	if fqn == "os.system" {
		return true
	}

	switch arg0.Type() {
	case "list", "tuple":
		first := arg0.NamedChild(0)
		if first == nil {
			return true
		}
		s, ok := v.stringLiteral(first)
		if !ok {
			return true
		}
		return !allowedSubprocessBasenames[headBasename(s)]
	default:
		if s, ok := v.stringLiteral(arg0); ok {
			return !allowedSubprocessBasenames[headBasename(s)]
		}
		// Variable command; target cannot be proven safe.
		return true
	}
}

// callArgs splits a call's argument list into positionals and keywords.
func (v *visitor) callArgs(call *sitter.Node) ([]*sitter.Node, map[string]*sitter.Node) {
	var positional []*sitter.Node
	keywords := make(map[string]*sitter.Node)

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return positional, keywords
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "keyword_argument" {
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if name != nil && value != nil {
				keywords[name.Content(v.source)] = value
			}
			continue
		}
		if arg.Type() == "comment" {
			continue
		}
		positional = append(positional, arg)
	}
	return positional, keywords
}

// stringLiteral extracts the value of a plain or raw string literal.
// F-strings and anything with interpolation are not literals.
func (v *visitor) stringLiteral(node *sitter.Node) (string, bool) {
	if node == nil || node.Type() != "string" {
		return "", false
	}

	var sb strings.Builder
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string_start":
			prefix := strings.ToLower(child.Content(v.source))
			if strings.ContainsAny(prefix, "f") {
				return "", false
			}
		case "interpolation":
			return "", false
		case "string_content", "escape_sequence":
			sb.WriteString(child.Content(v.source))
		}
	}
	return sb.String(), true
}

// headBasename extracts the command basename from a command string:
// first whitespace token, path-stripped, extension-stripped, folded.
func headBasename(command string) string {
	fields := strings.Fields(strings.TrimSpace(command))
	if len(fields) == 0 {
		return ""
	}
	head := fields[0]
	if idx := strings.LastIndexAny(head, "/\\"); idx >= 0 {
		head = head[idx+1:]
	}
	if idx := strings.Index(head, "."); idx >= 0 {
		head = head[:idx]
	}
	return strings.ToLower(head)
}

// topModule returns the leading component of a dotted module path.
func topModule(path string) string {
	if idx := strings.Index(path, "."); idx >= 0 {
		return path[:idx]
	}
	return path
}

// firstErrorNode finds the first ERROR or MISSING node in the tree.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if errNode := firstErrorNode(node.Child(i)); errNode != nil {
			return errNode
		}
	}
	return nil
}
