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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/slabvec/cache/mempool"
)

var (
	errCopy = errors.New("copy failed")
	errBoom = errors.New("boom")
)

// tracker records the life of res and mres values. Elements are
// pointer-free, so the hooks reach it through a package variable.
type tracker struct {
	nextID    int64
	live      map[int64]bool
	copies    int
	failAt    int // copy number that fails, -1 for none
	moves     int
	destroyed []int64
}

var tr *tracker

func newTracker(t *testing.T) *tracker {
	tr = &tracker{live: make(map[int64]bool), failAt: -1}
	t.Cleanup(func() { tr = nil })
	return tr
}

func (k *tracker) acquire() int64 {
	k.nextID++
	k.live[k.nextID] = true
	return k.nextID
}

func (k *tracker) release(id int64) {
	if !k.live[id] {
		panic("release of dead resource")
	}
	delete(k.live, id)
	k.destroyed = append(k.destroyed, id)
}

// res owns a tracked resource and can only be copied.
type res struct {
	id  int64
	val int64
}

func (r *res) CopyFrom(src *res) error {
	if tr.failAt == tr.copies {
		return errCopy
	}
	tr.copies++
	r.id = tr.acquire()
	r.val = src.val
	return nil
}

func (r *res) Destroy() { tr.release(r.id) }

func newRes(val int64) func(*res) error {
	return func(r *res) error {
		r.id = tr.acquire()
		r.val = val
		return nil
	}
}

// mres owns a tracked resource and relocates through MoveFrom.
type mres struct {
	id  int64
	val int64
}

func (r *mres) MoveFrom(src *mres) {
	tr.moves++
	*r = *src
}

func (r *mres) Destroy() { tr.release(r.id) }

func newMres(val int64) func(*mres) error {
	return func(r *mres) error {
		r.id = tr.acquire()
		r.val = val
		return nil
	}
}

type point struct {
	X, Y int32
}

func newTestAlloc[T any](t *testing.T) *ElementAllocator[T] {
	a, err := NewElementAllocator[T](mempool.NewPool(nil))
	require.NoError(t, err)
	return a
}

func vals[T interface{ res | mres }](s []T) []int64 {
	out := make([]int64, len(s))
	for i := range s {
		switch e := any(s[i]).(type) {
		case res:
			out[i] = e.val
		case mres:
			out[i] = e.val
		}
	}
	return out
}

func ids[T interface{ res | mres }](s []T) []int64 {
	out := make([]int64, len(s))
	for i := range s {
		switch e := any(s[i]).(type) {
		case res:
			out[i] = e.id
		case mres:
			out[i] = e.id
		}
	}
	return out
}
