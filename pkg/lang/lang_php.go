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
	"github.com/smacker/go-tree-sitter/php"
)

const phpSymbolQuery = `
(function_definition name: (name) @name) @definition.function
(method_declaration name: (name) @name) @definition.method
(class_declaration name: (name) @name) @definition.class
(interface_declaration name: (name) @name) @definition.interface
(trait_declaration name: (name) @name) @definition.trait
(const_element (name) @name) @definition.constant
`

const phpReferenceQuery = `
(function_call_expression function: (name) @reference)
(member_call_expression name: (name) @reference)
(scoped_call_expression name: (name) @reference)
(object_creation_expression (qualified_name (name) @reference))
`

const phpImportQuery = `
(namespace_use_clause (qualified_name) @import)
(require_expression (string) @import)
(require_once_expression (string) @import)
(include_expression (string) @import)
(include_once_expression (string) @import)
`

func phpGrammar() *Grammar {
	return &Grammar{
		Name:           "php",
		language:       php.GetLanguage,
		SymbolQuery:    phpSymbolQuery,
		ReferenceQuery: phpReferenceQuery,
		ImportQuery:    phpImportQuery,
		ContainerTypes: map[string]bool{"class_declaration": true, "interface_declaration": true, "trait_declaration": true},
		// best-effort, like Java: `use` targets are namespaced class
		// names, not file paths; require/include targets are relative
		// paths. Both query branches share phpImportResolver, which
		// strips quotes only when the capture is a string node.
		Resolver: phpImportResolver,
	}
}

func phpImportResolver(content []byte, node *sitter.Node) []string {
	text := node.Content(content)
	if node.Type() == "string" && len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	if text == "" {
		return nil
	}
	return []string{text}
}
