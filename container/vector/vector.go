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

package vector

import (
	"fmt"
	"iter"
)

// Vector is a growable array of T stored in pool memory.
//
// Operations that construct elements either succeed or leave the vector as
// it was, except AppendSeq which keeps what it appended before a failure.
// Elements shift within the buffer by memory copy; hooks run when an
// element is built, copied into another buffer, or torn down.
//
// A Vector is not safe for concurrent use.
type Vector[T any] struct {
	a   *ElementAllocator[T]
	buf Block[T]
	n   int
}

// New returns an empty vector without storage.
func New[T any](a *ElementAllocator[T]) *Vector[T] {
	return &Vector[T]{a: a}
}

// NewWithCapacity returns an empty vector with room for n elements.
func NewWithCapacity[T any](a *ElementAllocator[T], n int) (*Vector[T], error) {
	v := New(a)
	if err := v.Reserve(n); err != nil {
		return nil, err
	}
	return v, nil
}

// NewFilled returns a vector of n copies of x.
func NewFilled[T any](a *ElementAllocator[T], n int, x T) (*Vector[T], error) {
	v, err := NewWithCapacity(a, n)
	if err != nil {
		return nil, err
	}
	if _, err := UninitializedFill(a, v.buf.elems[:n], &x); err != nil {
		v.Release()
		return nil, err
	}
	v.n = n
	return v, nil
}

// NewFromSlice returns a vector holding copies of s.
func NewFromSlice[T any](a *ElementAllocator[T], s []T) (*Vector[T], error) {
	v, err := NewWithCapacity(a, len(s))
	if err != nil {
		return nil, err
	}
	if _, err := UninitializedCopy(a, v.buf.elems, s); err != nil {
		v.Release()
		return nil, err
	}
	v.n = len(s)
	return v, nil
}

// NewFromSeq returns a vector holding the values yielded by seq.
func NewFromSeq[T any](a *ElementAllocator[T], seq iter.Seq[T]) (*Vector[T], error) {
	v := New(a)
	if err := v.AppendSeq(seq); err != nil {
		v.Release()
		return nil, err
	}
	return v, nil
}

func (v *Vector[T]) Len() int { return v.n }

func (v *Vector[T]) Cap() int { return len(v.buf.elems) }

func (v *Vector[T]) Empty() bool { return v.n == 0 }

// MaxLen returns the largest length the vector can reach.
func (v *Vector[T]) MaxLen() int { return v.a.MaxCount() }

// Allocator returns the allocator providing the vector's storage.
func (v *Vector[T]) Allocator() *ElementAllocator[T] { return v.a }

// Data returns the live elements. The slice aliases the vector's storage
// and is valid until the next operation that changes the capacity.
func (v *Vector[T]) Data() []T {
	return v.buf.elems[:v.n:v.n]
}

// At returns a pointer to the ith element. It panics if i is out of range.
func (v *Vector[T]) At(i int) *T {
	return &v.buf.elems[:v.n][i]
}

// Set destroys the ith element and stores x in its place.
func (v *Vector[T]) Set(i int, x T) {
	p := v.At(i)
	v.a.Destroy(p)
	*p = x
}

func (v *Vector[T]) Front() *T { return v.At(0) }

func (v *Vector[T]) Back() *T { return v.At(v.n - 1) }

// All returns an iterator over index-value pairs of the live elements.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.n; i++ {
			if !yield(i, v.buf.elems[i]) {
				return
			}
		}
	}
}

// Reserve makes room for at least n elements.
func (v *Vector[T]) Reserve(n int) error {
	if n <= v.Cap() {
		return nil
	}
	if n > v.a.max {
		return ErrLengthOverflow
	}
	return v.realloc(n)
}

// ShrinkToFit drops the capacity beyond the current length.
func (v *Vector[T]) ShrinkToFit() error {
	if v.Cap() == v.n {
		return nil
	}
	return v.realloc(v.n)
}

func (v *Vector[T]) realloc(n int) error {
	nb, err := v.a.Allocate(n)
	if err != nil {
		return fmt.Errorf("vector: reallocate %d elements: %w", n, err)
	}
	if err := v.a.ops.relocate(nb.elems[:v.n], v.buf.elems[:v.n], -1); err != nil {
		v.a.Deallocate(nb)
		return err
	}
	v.a.Deallocate(v.buf)
	v.buf = nb
	return nil
}

// grownCap returns the capacity for holding need elements: at least need,
// and at least twice the current capacity.
func (v *Vector[T]) grownCap(need int) int {
	c := v.Cap()
	if c > v.a.max/2 {
		c = v.a.max
	} else {
		c *= 2
	}
	return max(c, need)
}

// Emplace constructs a new element at pos with ctor, shifting later
// elements right. A nil ctor inserts the zero value.
// It panics if pos is not in [0, Len()].
func (v *Vector[T]) Emplace(pos int, ctor func(*T) error) error {
	v.checkInsert(pos)
	switch {
	case v.n == v.Cap():
		return v.growEmplace(pos, ctor)
	case pos == v.n:
		if err := v.a.Construct(&v.buf.elems[pos], ctor); err != nil {
			return err
		}
		v.n++
		return nil
	default:
		return v.shiftEmplace(pos, ctor)
	}
}

// EmplaceBack constructs a new element at the end with ctor.
func (v *Vector[T]) EmplaceBack(ctor func(*T) error) error {
	return v.Emplace(v.n, ctor)
}

// Insert stores x at pos, shifting later elements right.
func (v *Vector[T]) Insert(pos int, x T) error {
	return v.Emplace(pos, func(p *T) error {
		*p = x
		return nil
	})
}

// PushBack stores x at the end.
func (v *Vector[T]) PushBack(x T) error {
	if v.n < v.Cap() {
		v.buf.elems[v.n] = x
		v.n++
		return nil
	}
	return v.Insert(v.n, x)
}

func (v *Vector[T]) checkInsert(pos int) {
	if pos < 0 || pos > v.n {
		panic(fmt.Sprintf("vector: insert position %d out of range [0:%d]", pos, v.n))
	}
}

// shiftEmplace inserts before the end with spare capacity. The new value
// is built aside first so a failing ctor leaves the elements in place.
func (v *Vector[T]) shiftEmplace(pos int, ctor func(*T) error) error {
	var tmp T
	if err := v.a.Construct(&tmp, ctor); err != nil {
		return err
	}
	e := v.buf.elems
	last := v.n - 1
	if v.a.traits.NothrowRelocatable {
		copy(e[pos+1:v.n+1], e[pos:v.n])
	} else {
		if err := v.a.ConstructCopy(&e[v.n], &e[last]); err != nil {
			v.a.Destroy(&tmp)
			return err
		}
		v.a.Destroy(&e[last])
		copy(e[pos+1:v.n], e[pos:last])
	}
	v.a.ConstructMove(&e[pos], &tmp)
	v.n++
	return nil
}

// growEmplace inserts into a full vector. The new element is built first
// in the new buffer, then the old elements are relocated around it; the old
// buffer is released only after everything succeeded.
func (v *Vector[T]) growEmplace(pos int, ctor func(*T) error) error {
	if v.n == v.a.max {
		return ErrLengthOverflow
	}
	c := v.grownCap(v.n + 1)
	nb, err := v.a.Allocate(c)
	if err != nil {
		return fmt.Errorf("vector: grow to %d elements: %w", c, err)
	}
	e := nb.elems
	if err := v.a.Construct(&e[pos], ctor); err != nil {
		v.a.Deallocate(nb)
		return err
	}
	if err := v.a.ops.relocate(e[:v.n+1], v.buf.elems[:v.n], pos); err != nil {
		v.a.Destroy(&e[pos])
		v.a.Deallocate(nb)
		return err
	}
	v.a.Deallocate(v.buf)
	v.buf = nb
	v.n++
	return nil
}

// AppendSlice appends copies of s.
func (v *Vector[T]) AppendSlice(s []T) error {
	if len(s) == 0 {
		return nil
	}
	if len(s) > v.a.max-v.n {
		return ErrLengthOverflow
	}
	need := v.n + len(s)
	if need <= v.Cap() {
		_, err := UninitializedCopy(v.a, v.buf.elems[v.n:need], s)
		if err == nil {
			v.n = need
		}
		return err
	}

	c := v.grownCap(need)
	nb, err := v.a.Allocate(c)
	if err != nil {
		return fmt.Errorf("vector: grow to %d elements: %w", c, err)
	}
	if _, err := UninitializedCopy(v.a, nb.elems[v.n:need], s); err != nil {
		v.a.Deallocate(nb)
		return err
	}
	if err := v.a.ops.relocate(nb.elems[:v.n], v.buf.elems[:v.n], -1); err != nil {
		v.a.rollback(nb.elems[v.n:need])
		v.a.Deallocate(nb)
		return err
	}
	v.a.Deallocate(v.buf)
	v.buf = nb
	v.n = need
	return nil
}

// AppendSeq appends the values yielded by seq, growing as it goes.
// On failure the values appended so far stay.
func (v *Vector[T]) AppendSeq(seq iter.Seq[T]) error {
	for x := range seq {
		if err := v.PushBack(x); err != nil {
			return err
		}
	}
	return nil
}

// PopBack destroys the last element. It panics if the vector is empty.
func (v *Vector[T]) PopBack() {
	if v.n == 0 {
		panic("vector: PopBack on empty vector")
	}
	v.n--
	v.a.Destroy(&v.buf.elems[v.n])
}

// Erase destroys the elements in [i, j) and closes the gap.
// It panics if the range is invalid.
func (v *Vector[T]) Erase(i, j int) {
	if i < 0 || j > v.n || i > j {
		panic(fmt.Sprintf("vector: erase range [%d:%d] out of range [0:%d]", i, j, v.n))
	}
	if i == j {
		return
	}
	e := v.buf.elems
	v.a.DestroyRange(e[i:j])
	copy(e[i:], e[j:v.n])
	clear(e[v.n-(j-i) : v.n])
	v.n -= j - i
}

// Clear destroys every element and keeps the storage.
func (v *Vector[T]) Clear() {
	v.a.DestroyRange(v.buf.elems[:v.n])
	v.n = 0
}

// Assign replaces the contents with copies of s.
func (v *Vector[T]) Assign(s []T) error {
	if v.a.traits.TriviallyCopyable && v.a.traits.TriviallyDestructible && len(s) <= v.Cap() {
		copy(v.buf.elems, s)
		v.n = len(s)
		return nil
	}
	w, err := NewFromSlice(v.a, s)
	if err != nil {
		return err
	}
	v.Swap(w)
	w.Release()
	return nil
}

// Clone returns a copy of v with capacity equal to its length.
func (v *Vector[T]) Clone() (*Vector[T], error) {
	return NewFromSlice(v.a, v.Data())
}

// Swap exchanges the contents of v and o.
func (v *Vector[T]) Swap(o *Vector[T]) {
	*v, *o = *o, *v
}

// Release destroys every element and returns the storage to the pool.
func (v *Vector[T]) Release() {
	v.Clear()
	v.a.Deallocate(v.buf)
	v.buf = Block[T]{}
}
