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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const pySymbolQuery = `
(function_definition name: (identifier) @name) @definition.function
(class_definition name: (identifier) @name) @definition.class
(assignment left: (identifier) @name) @definition.variable
`

const pyReferenceQuery = `
(call function: (identifier) @reference)
(call function: (attribute attribute: (identifier) @reference))
`

const pyImportQuery = `
(import_statement name: (dotted_name) @import)
(import_from_statement module_name: (dotted_name) @import)
(import_from_statement module_name: (relative_import) @import)
`

func pythonGrammar() *Grammar {
	return &Grammar{
		Name:           "python",
		language:       python.GetLanguage,
		SymbolQuery:    pySymbolQuery,
		ReferenceQuery: pyReferenceQuery,
		ImportQuery:    pyImportQuery,
		ContainerTypes: map[string]bool{"class_definition": true},
		Resolver:       pyModuleResolver,
	}
}

// pyModuleResolver returns the raw dotted-module text of an import target;
// dotted-module -> file-path translation happens in resolve.go, which
// needs to know the importing file's own package path to handle relative
// imports ("from . import foo").
func pyModuleResolver(content []byte, node *sitter.Node) []string {
	text := strings.TrimSpace(node.Content(content))
	if text == "" {
		return nil
	}
	return []string{text}
}
