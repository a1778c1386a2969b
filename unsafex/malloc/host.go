/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package malloc provides the host allocators that back a slab pool:
// the Go heap, mcache, a bounded buddy arena and anonymous mmap,
// plus wrappers for budgeting and metrics.
package malloc

import (
	"errors"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"
)

var (
	// ErrOutOfMemory is returned (possibly wrapped) when a host cannot satisfy a request.
	ErrOutOfMemory = errors.New("malloc: out of memory")

	// ErrUnsupported is returned by hosts not available on the current platform.
	ErrUnsupported = errors.New("malloc: unsupported on this platform")
)

// Host is the system heap as seen by a slab pool.
//
// Alloc returns a buffer with len == n, or an error wrapping ErrOutOfMemory.
// The content of the buffer is undefined.
// Free must be called with the exact slice returned by Alloc (len may
// differ, the pointer and cap must not).
type Host interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// HeapHost allocates from the Go heap without zeroing.
// Free only drops the reference, the GC reclaims the memory.
type HeapHost struct{}

var _ Host = HeapHost{}

func (HeapHost) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	return dirtmake.Bytes(n, n), nil
}

func (HeapHost) Free([]byte) {}

// MCacheHost allocates from mcache, which recycles power-of-two sized buffers.
type MCacheHost struct{}

var _ Host = MCacheHost{}

func (MCacheHost) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	return mcache.Malloc(n), nil
}

func (MCacheHost) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	mcache.Free(b)
}
