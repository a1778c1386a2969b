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

// Package vector provides a growable array whose storage comes from a
// mempool.Pool, together with the typed allocator and the algorithms that
// construct elements into raw pool memory.
//
// Elements live in memory the GC does not scan, so the element type must
// not contain Go pointers. Custom copy, move and teardown logic is opted
// into through Copier, Mover and Destroyer.
package vector

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/cloudwego/slabvec/cache/mempool"
	"github.com/cloudwego/slabvec/unsafex"
)

// pool blocks are carved at multiples of 8 bytes
const maxAlign = 8

// Block is typed storage obtained from an ElementAllocator.
// Its elements are uninitialized until constructed.
type Block[T any] struct {
	raw   []byte
	elems []T
}

// Elems returns the storage of the block.
func (b Block[T]) Elems() []T { return b.elems }

// Len returns the number of element slots in the block.
func (b Block[T]) Len() int { return len(b.elems) }

// ElementAllocator hands out storage for T from a Pool and constructs
// and destroys T values in it.
type ElementAllocator[T any] struct {
	pool   *mempool.Pool
	size   int
	max    int
	traits Traits
	ops    ops[T]
}

// NewElementAllocator returns an allocator of T backed by p.
// A nil p gets a pool with default options.
func NewElementAllocator[T any](p *mempool.Pool) (*ElementAllocator[T], error) {
	var zero T
	if !unsafex.PointerFree[T]() {
		return nil, fmt.Errorf("%w: %T", ErrPointerElem, zero)
	}
	if unsafe.Alignof(zero) > maxAlign {
		return nil, fmt.Errorf("%w: %T aligned to %d", ErrAlignment, zero, unsafe.Alignof(zero))
	}
	if p == nil {
		p = mempool.NewPool(nil)
	}
	a := &ElementAllocator[T]{
		pool:   p,
		size:   int(unsafe.Sizeof(zero)),
		max:    math.MaxInt,
		traits: traitsOf[T](),
	}
	if a.size > 0 {
		a.max = math.MaxInt / a.size
	}
	if a.traits.TriviallyRelocatable {
		a.ops = bulkOps[T]{}
	} else {
		a.ops = hookOps[T]{a: a}
	}
	return a, nil
}

// Pool returns the pool the allocator draws from.
func (a *ElementAllocator[T]) Pool() *mempool.Pool { return a.pool }

// Traits reports how T is copied, relocated and destroyed.
func (a *ElementAllocator[T]) Traits() Traits { return a.traits }

// MaxCount returns the largest count Allocate accepts.
func (a *ElementAllocator[T]) MaxCount() int { return a.max }

// Allocate returns uninitialized storage for count elements.
// A zero count returns an empty Block.
func (a *ElementAllocator[T]) Allocate(count int) (Block[T], error) {
	if count < 0 {
		panic(fmt.Sprintf("vector: negative element count %d", count))
	}
	if count == 0 {
		return Block[T]{}, nil
	}
	if count > a.max {
		return Block[T]{}, ErrLengthOverflow
	}
	if a.size == 0 {
		return Block[T]{elems: make([]T, count)}, nil
	}
	raw, err := a.pool.Allocate(count * a.size)
	if err != nil {
		return Block[T]{}, err
	}
	return Block[T]{raw: raw, elems: unsafex.SliceOf[T](raw)}, nil
}

// Deallocate returns the storage of b. Elements still live in b are not destroyed.
func (a *ElementAllocator[T]) Deallocate(b Block[T]) {
	if len(b.raw) > 0 {
		a.pool.Deallocate(b.raw, len(b.raw))
	}
}

// Construct initializes the uninitialized slot p: the slot is zeroed,
// then ctor runs on it. A nil ctor leaves the zero value.
// If ctor fails the slot counts as never constructed.
func (a *ElementAllocator[T]) Construct(p *T, ctor func(*T) error) error {
	var zero T
	*p = zero
	if ctor == nil {
		return nil
	}
	if err := ctor(p); err != nil {
		return constructionError(err)
	}
	return nil
}

// ConstructCopy initializes the uninitialized slot dst as a copy of src.
func (a *ElementAllocator[T]) ConstructCopy(dst, src *T) error {
	if a.traits.TriviallyCopyable {
		*dst = *src
		return nil
	}
	var zero T
	*dst = zero
	if err := any(dst).(Copier[T]).CopyFrom(src); err != nil {
		return constructionError(err)
	}
	return nil
}

// ConstructMove relocates src into the uninitialized slot dst.
// src is dead afterwards and must not be destroyed.
func (a *ElementAllocator[T]) ConstructMove(dst, src *T) {
	if a.traits.TriviallyRelocatable {
		*dst = *src
		return
	}
	if m, ok := any(dst).(Mover[T]); ok {
		var zero T
		*dst = zero
		m.MoveFrom(src)
		return
	}
	*dst = *src
}

// Destroy tears down the live element at p.
func (a *ElementAllocator[T]) Destroy(p *T) {
	if a.traits.TriviallyDestructible {
		return
	}
	any(p).(Destroyer).Destroy()
}

// DestroyRange tears down every element of s in order.
func (a *ElementAllocator[T]) DestroyRange(s []T) {
	if a.traits.TriviallyDestructible {
		return
	}
	for i := range s {
		any(&s[i]).(Destroyer).Destroy()
	}
}

// rollback destroys s in reverse order of construction.
func (a *ElementAllocator[T]) rollback(s []T) {
	if a.traits.TriviallyDestructible {
		return
	}
	for i := len(s) - 1; i >= 0; i-- {
		any(&s[i]).(Destroyer).Destroy()
	}
}
