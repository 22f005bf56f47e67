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

package daemon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	var calls int32
	d := NewDebouncer(30*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDebouncerCancelPreventsFire(t *testing.T) {
	var calls int32
	d := NewDebouncer(20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	d.Trigger()
	d.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDebouncerFiresAgainAfterWindow(t *testing.T) {
	var calls int32
	d := NewDebouncer(20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	})

	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	d.Trigger()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
