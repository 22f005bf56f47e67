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

package index

import "github.com/cespare/xxhash/v2"

// ContentHash returns a fast, non-cryptographic 64-bit hash of a file's
// bytes, used to skip re-parsing files whose content hasn't changed since
// the last index.
func ContentHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}
