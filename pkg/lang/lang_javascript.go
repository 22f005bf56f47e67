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
	"github.com/smacker/go-tree-sitter/javascript"
)

const jsSymbolQuery = `
(function_declaration name: (identifier) @name) @definition.function
(method_definition name: (property_identifier) @name) @definition.method
(class_declaration name: (identifier) @name) @definition.class
(variable_declarator name: (identifier) @name value: (arrow_function)) @definition.function
(variable_declarator name: (identifier) @name value: (function_expression)) @definition.function
(lexical_declaration (variable_declarator name: (identifier) @name)) @definition.variable
`

const jsReferenceQuery = `
(call_expression function: (identifier) @reference)
(call_expression function: (member_expression property: (property_identifier) @reference))
(new_expression constructor: (identifier) @reference)
`

const jsImportQuery = `
(import_statement source: (string) @import)
(call_expression function: (identifier) @_req (#eq? @_req "require") arguments: (arguments (string) @import))
`

func javascriptGrammar() *Grammar {
	return &Grammar{
		Name:           "javascript",
		language:       javascript.GetLanguage,
		SymbolQuery:    jsSymbolQuery,
		ReferenceQuery: jsReferenceQuery,
		ImportQuery:    jsImportQuery,
		ContainerTypes: map[string]bool{"class_declaration": true},
		Resolver:       jsModuleResolver,
	}
}
