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
	"github.com/smacker/go-tree-sitter/cpp"
)

const cppSymbolQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @name)) @definition.function
(function_definition declarator: (function_declarator declarator: (field_identifier) @name)) @definition.method
(class_specifier name: (type_identifier) @name) @definition.class
(struct_specifier name: (type_identifier) @name) @definition.struct
(enum_specifier name: (type_identifier) @name) @definition.enum
(alias_declaration name: (type_identifier) @name) @definition.type_alias
`

const cppReferenceQuery = `
(call_expression function: (identifier) @reference)
(call_expression function: (field_expression field: (field_identifier) @reference))
(call_expression function: (qualified_identifier name: (identifier) @reference))
(type_identifier) @reference
`

const cppImportQuery = `
(preproc_include path: (string_literal) @import)
(preproc_include path: (system_lib_string) @import)
`

func cppGrammar() *Grammar {
	return &Grammar{
		Name:           "cpp",
		language:       cpp.GetLanguage,
		SymbolQuery:    cppSymbolQuery,
		ReferenceQuery: cppReferenceQuery,
		ImportQuery:    cppImportQuery,
		ContainerTypes: map[string]bool{"class_specifier": true, "struct_specifier": true},
		Resolver:       cIncludeResolver,
	}
}
