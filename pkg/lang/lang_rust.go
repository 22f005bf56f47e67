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
	"github.com/smacker/go-tree-sitter/rust"
)

const rustSymbolQuery = `
(function_item name: (identifier) @name) @definition.function
(struct_item name: (type_identifier) @name) @definition.struct
(enum_item name: (type_identifier) @name) @definition.enum
(trait_item name: (type_identifier) @name) @definition.trait
(type_item name: (type_identifier) @name) @definition.type_alias
(const_item name: (identifier) @name) @definition.constant
(static_item name: (identifier) @name) @definition.variable
(impl_item type: (type_identifier) @name) @definition.impl
`

const rustReferenceQuery = `
(call_expression function: (identifier) @reference)
(call_expression function: (field_expression field: (field_identifier) @reference))
(call_expression function: (scoped_identifier name: (identifier) @reference))
(type_identifier) @reference
`

const rustImportQuery = `
(use_declaration argument: (scoped_identifier) @import)
(use_declaration argument: (identifier) @import)
(use_declaration argument: (use_as_clause path: (scoped_identifier) @import))
`

func rustGrammar() *Grammar {
	return &Grammar{
		Name:           "rust",
		language:       rust.GetLanguage,
		SymbolQuery:    rustSymbolQuery,
		ReferenceQuery: rustReferenceQuery,
		ImportQuery:    rustImportQuery,
		// impl blocks attach methods to a type the same way Go's receivers
		// do; function_item nested in an impl_item takes its scope from
		// the impl's own @name capture rather than lexical containment
		// (impl_item has no dedicated "body scope" distinct from the
		// struct/trait it implements), so impl is handled like Go methods.
		ContainerTypes: map[string]bool{"trait_item": true, "impl_item": true},
		ScopeOf:        rustImplScope,
		Resolver:       rustPathResolver,
	}
}

// rustImplScope returns the type name of the nearest enclosing impl_item,
// the same text its @name capture holds, or "" outside an impl.
func rustImplScope(defNode *sitter.Node, content []byte) string {
	for p := defNode.Parent(); p != nil; p = p.Parent() {
		if p.Type() != "impl_item" {
			continue
		}
		if t := p.ChildByFieldName("type"); t != nil && t.Type() == "type_identifier" {
			return t.Content(content)
		}
		return ""
	}
	return ""
}

// rustPathResolver returns a use-declaration's scoped path text verbatim
// ("std::collections::HashMap"); it is not a quoted string literal like
// Go's import path, so it needs its own resolver rather than
// rawStringResolver.
func rustPathResolver(content []byte, node *sitter.Node) []string {
	text := node.Content(content)
	if text == "" {
		return nil
	}
	return []string{text}
}
