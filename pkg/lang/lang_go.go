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
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

const goSymbolQuery = `
(function_declaration name: (identifier) @name) @definition.function
(method_declaration name: (field_identifier) @name) @definition.method
(type_spec name: (type_identifier) @name type: (struct_type)) @definition.struct
(type_spec name: (type_identifier) @name type: (interface_type)) @definition.interface
(type_spec name: (type_identifier) @name) @definition.type_alias
(const_spec name: (identifier) @name) @definition.constant
(var_spec name: (identifier) @name) @definition.variable
`

const goReferenceQuery = `
(call_expression function: (identifier) @reference)
(call_expression function: (selector_expression field: (field_identifier) @reference))
(type_identifier) @reference
`

const goImportQuery = `
(import_spec path: (interpreted_string_literal) @import)
`

func goGrammar() *Grammar {
	return &Grammar{
		Name:           "go",
		language:       golang.GetLanguage,
		SymbolQuery:    goSymbolQuery,
		ReferenceQuery: goReferenceQuery,
		ImportQuery:    goImportQuery,
		ContainerTypes: map[string]bool{},
		ScopeOf:        goMethodScope,
		Resolver:       rawStringResolver,
	}
}

// goMethodScope returns a method's receiver type name as its scope: Go has
// no classes, so the receiver type is the closest analogue of a class name
// for a method.
func goMethodScope(defNode *sitter.Node, content []byte) string {
	if defNode.Type() != "method_declaration" {
		return ""
	}
	recv := defNode.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	return extractBaseTypeName(recv, content)
}

// extractBaseTypeName walks a receiver parameter_list down to the base
// type identifier, stripping pointer and generic-instantiation wrappers
// (`*T`, `T[K]`).
func extractBaseTypeName(node *sitter.Node, content []byte) string {
	var walk func(n *sitter.Node) string
	walk = func(n *sitter.Node) string {
		switch n.Type() {
		case "type_identifier":
			return n.Content(content)
		case "pointer_type", "generic_type":
			if t := n.ChildByFieldName("name"); t != nil {
				return walk(t)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "type_identifier" || c.Type() == "pointer_type" || c.Type() == "generic_type" {
				return walk(c)
			}
			if c.Type() == "parameter_declaration" {
				if t := walk(c); t != "" {
					return t
				}
			}
		}
		return ""
	}
	return walk(node)
}

// rawStringResolver strips the surrounding quotes from a string-literal
// import-path capture, used by Go and, through jsModuleResolver, by
// JavaScript/TypeScript, whose import targets are plain quoted strings.
func rawStringResolver(content []byte, node *sitter.Node) []string {
	text := node.Content(content)
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	if text == "" {
		return nil
	}
	return []string{text}
}
