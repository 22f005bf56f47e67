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
	"github.com/smacker/go-tree-sitter/c"
)

const cSymbolQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @name)) @definition.function
(struct_specifier name: (type_identifier) @name) @definition.struct
(enum_specifier name: (type_identifier) @name) @definition.enum
(type_definition declarator: (type_identifier) @name) @definition.type_alias
(declaration declarator: (identifier) @name) @definition.variable
`

const cReferenceQuery = `
(call_expression function: (identifier) @reference)
(type_identifier) @reference
`

const cImportQuery = `
(preproc_include path: (string_literal) @import)
(preproc_include path: (system_lib_string) @import)
`

func cGrammar() *Grammar {
	return &Grammar{
		Name:           "c",
		language:       c.GetLanguage,
		SymbolQuery:    cSymbolQuery,
		ReferenceQuery: cReferenceQuery,
		ImportQuery:    cImportQuery,
		ContainerTypes: map[string]bool{},
		Resolver:       cIncludeResolver,
	}
}

// cIncludeResolver strips the quotes from "foo.h" or the angle brackets
// from <foo.h>.
func cIncludeResolver(content []byte, node *sitter.Node) []string {
	text := node.Content(content)
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	if text == "" {
		return nil
	}
	return []string{text}
}
