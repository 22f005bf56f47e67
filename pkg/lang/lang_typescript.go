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
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const tsSymbolQuery = `
(function_declaration name: (identifier) @name) @definition.function
(method_definition name: (property_identifier) @name) @definition.method
(class_declaration name: (type_identifier) @name) @definition.class
(interface_declaration name: (type_identifier) @name) @definition.interface
(enum_declaration name: (identifier) @name) @definition.enum
(type_alias_declaration name: (type_identifier) @name) @definition.type_alias
(variable_declarator name: (identifier) @name value: (arrow_function)) @definition.function
(lexical_declaration (variable_declarator name: (identifier) @name)) @definition.variable
(export_statement (identifier) @name) @definition.exported_alias
`

const tsReferenceQuery = `
(call_expression function: (identifier) @reference)
(call_expression function: (member_expression property: (property_identifier) @reference))
(type_identifier) @reference
`

const tsImportQuery = `
(import_statement source: (string) @import)
(call_expression function: (identifier) @_req (#eq? @_req "require") arguments: (arguments (string) @import))
`

func typescriptGrammar(variant string) *Grammar {
	lang := typescript.GetLanguage
	if variant == "tsx" {
		lang = tsx.GetLanguage
	}
	return &Grammar{
		Name:           variant,
		language:       lang,
		SymbolQuery:    tsSymbolQuery,
		ReferenceQuery: tsReferenceQuery,
		ImportQuery:    tsImportQuery,
		ContainerTypes: map[string]bool{"class_declaration": true, "interface_declaration": true},
		Resolver:       jsModuleResolver,
	}
}

// jsModuleResolver strips the quotes from a JS/TS import source string.
// Repo-relative resolution of "./foo" vs. bare-package specifiers happens
// in resolve.go.
func jsModuleResolver(content []byte, node *sitter.Node) []string {
	return rawStringResolver(content, node)
}
