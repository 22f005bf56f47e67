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
	"github.com/smacker/go-tree-sitter/ruby"
)

const rubySymbolQuery = `
(method name: (identifier) @name) @definition.method
(singleton_method name: (identifier) @name) @definition.method
(class name: (constant) @name) @definition.class
(module name: (constant) @name) @definition.module
(assignment left: (constant) @name) @definition.constant
`

const rubyReferenceQuery = `
(call method: (identifier) @reference)
(constant) @reference
`

const rubyImportQuery = `
(call method: (identifier) @_m (#match? @_m "^(require|require_relative)$") arguments: (argument_list (string (string_content) @import)))
`

func rubyGrammar() *Grammar {
	return &Grammar{
		Name:           "ruby",
		language:       ruby.GetLanguage,
		SymbolQuery:    rubySymbolQuery,
		ReferenceQuery: rubyReferenceQuery,
		ImportQuery:    rubyImportQuery,
		ContainerTypes: map[string]bool{"class": true, "module": true},
		Resolver:       rubyRequireResolver,
	}
}

// rubyRequireResolver returns a require/require_relative argument's bare
// text: the (string_content) capture already excludes the surrounding
// quotes, unlike the string captures used by other grammars.
func rubyRequireResolver(content []byte, node *sitter.Node) []string {
	text := node.Content(content)
	if text == "" {
		return nil
	}
	return []string{text}
}
