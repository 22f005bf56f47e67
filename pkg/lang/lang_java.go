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
	"github.com/smacker/go-tree-sitter/java"
)

const javaSymbolQuery = `
(method_declaration name: (identifier) @name) @definition.method
(class_declaration name: (identifier) @name) @definition.class
(interface_declaration name: (identifier) @name) @definition.interface
(enum_declaration name: (identifier) @name) @definition.enum
(constant_declarator name: (identifier) @name) @definition.constant
`

const javaReferenceQuery = `
(method_invocation name: (identifier) @reference)
(object_creation_expression type: (type_identifier) @reference)
(type_identifier) @reference
`

const javaImportQuery = `
(import_declaration (scoped_identifier) @import)
`

func javaGrammar() *Grammar {
	return &Grammar{
		Name:           "java",
		language:       java.GetLanguage,
		SymbolQuery:    javaSymbolQuery,
		ReferenceQuery: javaReferenceQuery,
		ImportQuery:    javaImportQuery,
		ContainerTypes: map[string]bool{"class_declaration": true, "interface_declaration": true, "enum_declaration": true},
		// best-effort: Java import targets are fully-qualified class
		// names, not file paths, so resolve.go's Java handling maps the
		// dotted suffix onto a source-tree path heuristically rather than
		// resolving a build classpath.
		Resolver: rustPathResolver,
	}
}
