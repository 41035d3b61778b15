// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guard

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// symbolTable resolves local names to fully-qualified references.
//
// # Description
//
// Built during a single document-order traversal and discarded with the
// verdict. Three tables cover the indirection an LLM can produce:
// module aliases ("import shutil as sh"), from-import aliases
// ("from shutil import rmtree as rm"), and assignment rebindings
// ("f = shutil.rmtree"). Unresolved roots resolve to themselves so that
// deny-list matching stays conservative.
//
// # Thread Safety
//
// Not safe for concurrent use; each Evaluate call owns its own table.
type symbolTable struct {
	// moduleAlias maps a local module name to the imported module path.
	moduleAlias map[string]string

	// funcAlias maps a local name to the from-imported symbol's FQN.
	funcAlias map[string]string

	// nameBindings maps a local name to an FQN bound by assignment.
	nameBindings map[string]string
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		moduleAlias:  make(map[string]string),
		funcAlias:    make(map[string]string),
		nameBindings: make(map[string]string),
	}
}

// bindModule records "import path" or "import path as alias".
func (t *symbolTable) bindModule(alias, path string) {
	t.moduleAlias[alias] = path
}

// bindSymbol records "from module import name [as alias]".
func (t *symbolTable) bindSymbol(alias, fqn string) {
	t.funcAlias[alias] = fqn
}

// bindAssignment records "name = <resolvable reference>".
func (t *symbolTable) bindAssignment(name, fqn string) {
	t.nameBindings[name] = fqn
}

// resolve returns the fully-qualified form of a bare name or dotted
// attribute chain rooted at a name. Non-reference nodes resolve to "".
func (t *symbolTable) resolve(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}

	switch node.Type() {
	case "identifier":
		name := node.Content(source)
		if fqn, ok := t.nameBindings[name]; ok {
			return fqn
		}
		if fqn, ok := t.funcAlias[name]; ok {
			return fqn
		}
		switch name {
		case "eval", "exec", "compile":
			return "builtins." + name
		case "__import__":
			return "__import__"
		case "open":
			return "builtins.open"
		}
		return name

	case "attribute":
		var parts []string
		cur := node
		for cur != nil && cur.Type() == "attribute" {
			attr := cur.ChildByFieldName("attribute")
			if attr == nil {
				return ""
			}
			parts = append(parts, attr.Content(source))
			cur = cur.ChildByFieldName("object")
		}
		if cur == nil || cur.Type() != "identifier" {
			return ""
		}
		root := cur.Content(source)
		if full, ok := t.moduleAlias[root]; ok {
			root = full
		}
		parts = append(parts, root)
		// parts were collected leaf-first.
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		return strings.Join(parts, ".")
	}

	return ""
}
