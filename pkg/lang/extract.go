// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package lang

import (
	"bytes"
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/etr/wonk/internal/model"
)

// CancelFlag is the type of a cooperative cancellation flag. Extract does
// not check one; pkg/index cancels a batch through its context instead.
type CancelFlag = *int32

// Extract parses content with g's grammar and runs its three pattern sets,
// producing one ParseResult. Parse errors inside the file do not abort
// extraction: Tree-sitter always returns a best-effort tree, and captures
// are taken from whatever parsed successfully.
func Extract(content []byte, g *Grammar, path string) (*model.ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(g.Language())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return &model.ParseResult{Language: g.Name, LineCount: bytes.Count(content, []byte("\n")) + 1}, nil
	}
	root := tree.RootNode()

	result := &model.ParseResult{
		Language:  g.Name,
		LineCount: bytes.Count(content, []byte("\n")) + 1,
	}

	defs := runQuery(g.Language(), g.SymbolQuery, root, content)
	for _, m := range defs {
		sym, ok := buildSymbol(m, g, content)
		if !ok {
			continue
		}
		result.Symbols = append(result.Symbols, sym)
	}

	refs := runQuery(g.Language(), g.ReferenceQuery, root, content)
	for _, m := range refs {
		node, ok := m.captures["reference"]
		if !ok {
			continue
		}
		result.References = append(result.References, model.Reference{
			Name:    node.Content(content),
			Line:    int(node.StartPoint().Row) + 1,
			Col:     int(node.StartPoint().Column) + 1,
			Context: lineAt(content, int(node.StartPoint().Row)),
		})
	}

	imps := runQuery(g.Language(), g.ImportQuery, root, content)
	for _, m := range imps {
		node, ok := m.captures["import"]
		if !ok {
			continue
		}
		if g.Resolver != nil {
			result.Imports = append(result.Imports, g.Resolver(content, node)...)
		}
	}

	return result, nil
}

// match is one query match's named captures, reduced to the capture
// names this package cares about (the last component after the final
// '.', so "definition.function" captures keyed by "function" are
// recoverable via rawNames).
type match struct {
	captures map[string]*sitter.Node
	rawNames map[string]string
}

func runQuery(language *sitter.Language, patternSrc string, root *sitter.Node, content []byte) []match {
	if strings.TrimSpace(patternSrc) == "" {
		return nil
	}
	q, err := sitter.NewQuery([]byte(patternSrc), language)
	if err != nil {
		return nil
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	var out []match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		mm := match{captures: map[string]*sitter.Node{}, rawNames: map[string]string{}}
		for _, c := range m.Captures {
			name := q.CaptureNameForId(c.Index)
			mm.captures[shortName(name)] = c.Node
			mm.rawNames[shortName(name)] = name
		}
		out = append(out, mm)
	}
	return out
}

// shortName reduces "definition.function" to "function" and leaves a bare
// capture name ("name", "reference", "import") unchanged.
func shortName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func buildSymbol(m match, g *Grammar, content []byte) (model.Symbol, bool) {
	nameNode, ok := m.captures["name"]
	if !ok {
		return model.Symbol{}, false
	}

	var defNode *sitter.Node
	var kind model.Kind
	for key, raw := range m.rawNames {
		if strings.HasPrefix(raw, "definition.") {
			defNode = m.captures[key]
			kind = model.Kind(strings.ReplaceAll(key, "_", "-"))
			break
		}
	}
	if defNode == nil {
		defNode = nameNode
		kind = model.KindVariable
	}

	scope := ""
	if g.ScopeOf != nil {
		scope = g.ScopeOf(defNode, content)
	}
	if scope == "" {
		scope = scopeOf(defNode, g.ContainerTypes, content)
	}

	return model.Symbol{
		Name:      nameNode.Content(content),
		Kind:      kind,
		StartLine: int(defNode.StartPoint().Row) + 1,
		StartCol:  int(defNode.StartPoint().Column) + 1,
		EndLine:   int(defNode.EndPoint().Row) + 1,
		Scope:     scope,
		Signature: signatureOf(defNode, content),
		Language:  g.Name,
	}, true
}

// scopeOf walks ancestors of node looking for the nearest container type
// (class body, impl block, ...) and returns its declared name. A non-empty
// scope always names another symbol captured in the same file (the
// container itself is also matched by the symbol query).
func scopeOf(node *sitter.Node, containers map[string]bool, content []byte) string {
	if len(containers) == 0 {
		return ""
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if !containers[p.Type()] {
			continue
		}
		if name := p.ChildByFieldName("name"); name != nil {
			return name.Content(content)
		}
		return ""
	}
	return ""
}

// signatureOf returns the declaration's first line: the full signature for
// single-line declarations, or the header line (up through the opening
// brace) for multi-line ones.
func signatureOf(node *sitter.Node, content []byte) string {
	start := int(node.StartPoint().Row)
	text := lineAt(content, start)
	if idx := strings.IndexByte(text, '{'); idx >= 0 && int(node.EndPoint().Row) > start {
		return strings.TrimRight(text[:idx+1], " \t")
	}
	return strings.TrimRight(text, " \t")
}

func lineAt(content []byte, row int) string {
	lines := bytes.Split(content, []byte("\n"))
	if row < 0 || row >= len(lines) {
		return ""
	}
	return strings.TrimRight(string(lines[row]), "\r")
}
