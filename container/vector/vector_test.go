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
	"math/bits"
	"slices"
	"testing"

	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/slabvec/cache/mempool"
	"github.com/cloudwego/slabvec/unsafex"
	"github.com/cloudwego/slabvec/unsafex/malloc"
)

func failing[T any](*T) error { return errBoom }

func fingerprint[T any](v *Vector[T]) uint64 {
	return xxhash3.Hash(unsafex.BytesOf(v.Data()))
}

func newResVector(t *testing.T, a *ElementAllocator[res], capacity int, vs ...int64) *Vector[res] {
	v, err := NewWithCapacity(a, capacity)
	require.NoError(t, err)
	for _, x := range vs {
		require.NoError(t, v.EmplaceBack(newRes(x)))
	}
	return v
}

func assertAllLive(t *testing.T, s []res) {
	t.Helper()
	for _, id := range ids(s) {
		assert.True(t, tr.live[id], "id %d", id)
	}
}

func TestCapacityProgression(t *testing.T) {
	a := newTestAlloc[int64](t)
	v := New(a)
	caps := []int{v.Cap()}
	for _, x := range []int64{1, 2, 3} {
		require.NoError(t, v.PushBack(x))
		caps = append(caps, v.Cap())
	}
	assert.Equal(t, []int{0, 1, 2, 4}, caps)
	assert.Equal(t, []int64{1, 2, 3}, v.Data())
	assert.Equal(t, 3, v.Len())
}

func TestPushBackReallocations(t *testing.T) {
	a := newTestAlloc[int64](t)
	v := New(a)
	const k = 1000

	want := make([]int64, 0, k)
	reallocs, last := 0, v.Cap()
	for i := 0; i < k; i++ {
		x := int64(i * 7)
		require.NoError(t, v.PushBack(x))
		want = append(want, x)
		if v.Cap() != last {
			reallocs++
			last = v.Cap()
		}
	}
	assert.LessOrEqual(t, reallocs, bits.Len(uint(k))+1)
	assert.Equal(t, k, v.Len())
	assert.Equal(t, want, v.Data())
}

func TestGrowthKeepsOldBufferOnConstructFailure(t *testing.T) {
	p := mempool.NewPool(nil)
	a, err := NewElementAllocator[int64](p)
	require.NoError(t, err)
	const c = 8
	v, err := NewWithCapacity(a, c)
	require.NoError(t, err)
	for i := 0; i < c; i++ {
		require.NoError(t, v.PushBack(int64(i*i)))
	}
	fp := fingerprint(v)
	data := &v.Data()[0]
	s := p.Stats()
	outstanding := s.SmallAllocs - s.SmallFrees

	for _, pos := range []int{0, 3, c} {
		err := v.Emplace(pos, failing[int64])
		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)
		var ce *ConstructionError
		assert.ErrorAs(t, err, &ce)

		assert.Equal(t, c, v.Len())
		assert.Equal(t, c, v.Cap())
		assert.Equal(t, fp, fingerprint(v))
		assert.Same(t, data, &v.Data()[0])
	}
	s = p.Stats()
	assert.Equal(t, outstanding, s.SmallAllocs-s.SmallFrees)
}

func TestGrowthKeepsOldBufferOnCopyFailure(t *testing.T) {
	for _, pos := range []int{0, 1, 4} {
		newTracker(t)
		a := newTestAlloc[res](t)
		v := newResVector(t, a, 4, 1, 2, 3, 4)
		before := ids(v.Data())
		fp := fingerprint(v)

		tr.failAt = tr.copies + 2
		err := v.Emplace(pos, newRes(100))
		assert.ErrorIs(t, err, errCopy, "pos %d", pos)

		assert.Equal(t, 4, v.Len())
		assert.Equal(t, 4, v.Cap())
		assert.Equal(t, fp, fingerprint(v))
		assert.Equal(t, before, ids(v.Data()))
		assertAllLive(t, v.Data())
		assert.Len(t, tr.live, 4)
		// two copies and the new element, newest copy first
		require.Len(t, tr.destroyed, 3)
		assert.Greater(t, tr.destroyed[0], tr.destroyed[1])
	}
}

func TestGrowthCopyOnly(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[res](t)
	v := newResVector(t, a, 2, 1, 2)
	old := ids(v.Data())

	require.NoError(t, v.Emplace(1, newRes(9)))
	assert.Equal(t, []int64{1, 9, 2}, vals(v.Data()))
	assert.Equal(t, 4, v.Cap())
	assert.Equal(t, old, tr.destroyed)
	assert.Len(t, tr.live, 3)
	assertAllLive(t, v.Data())
}

func TestGrowthMover(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[mres](t)
	v := New(a)
	for i := 0; i < 5; i++ {
		require.NoError(t, v.EmplaceBack(newMres(int64(i))))
	}
	assert.Equal(t, 8, v.Cap())
	assert.Equal(t, 0+1+2+4, tr.moves)
	assert.Empty(t, tr.destroyed)

	require.NoError(t, v.Emplace(0, newMres(9)))
	assert.Equal(t, 8, tr.moves)
	assert.Equal(t, []int64{9, 0, 1, 2, 3, 4}, vals(v.Data()))
	assert.Len(t, tr.live, 6)
}

func TestInsertWithSpareCapacity(t *testing.T) {
	a := newTestAlloc[int64](t)
	v, err := NewFromSlice(a, []int64{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, v.Reserve(8))
	data := &v.Data()[0]

	require.NoError(t, v.Insert(1, 9))
	require.NoError(t, v.Insert(0, 7))
	require.NoError(t, v.Insert(v.Len(), 5))
	require.NoError(t, v.Insert(v.Len()-1, 6))
	assert.Equal(t, []int64{7, 1, 9, 2, 3, 4, 6, 5}, v.Data())
	assert.Equal(t, 8, v.Cap())
	assert.Same(t, data, &v.Data()[0])

	assert.Panics(t, func() { _ = v.Insert(-1, 0) })
	assert.Panics(t, func() { _ = v.Insert(v.Len()+1, 0) })
}

func TestInsertWithSpareCapacityCopyOnly(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[res](t)
	v := newResVector(t, a, 5, 1, 2, 3)
	fp := fingerprint(v)

	// the last element cannot be copied past the end
	tr.failAt = tr.copies
	assert.ErrorIs(t, v.Emplace(1, newRes(9)), errCopy)
	assert.Equal(t, fp, fingerprint(v))
	assert.Len(t, tr.live, 3)

	assert.ErrorIs(t, v.Emplace(0, failing[res]), errBoom)
	assert.Equal(t, fp, fingerprint(v))

	tr.failAt = -1
	last := ids(v.Data())[2]
	require.NoError(t, v.Emplace(1, newRes(9)))
	assert.Equal(t, []int64{1, 9, 2, 3}, vals(v.Data()))
	assert.False(t, tr.live[last])
	assert.Len(t, tr.live, 4)
	assertAllLive(t, v.Data())

	require.NoError(t, v.Emplace(4, newRes(5)))
	assert.Equal(t, []int64{1, 9, 2, 3, 5}, vals(v.Data()))
	assert.Equal(t, 5, v.Cap())
}

func TestAppendSlice(t *testing.T) {
	a := newTestAlloc[int64](t)
	v, err := NewFromSlice(a, []int64{1, 2})
	require.NoError(t, err)

	require.NoError(t, v.AppendSlice(nil))
	require.NoError(t, v.AppendSlice([]int64{3, 4, 5}))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, v.Data())
	assert.Equal(t, 5, v.Cap())

	require.NoError(t, v.Reserve(16))
	require.NoError(t, v.AppendSlice(v.Data()))
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 1, 2, 3, 4, 5}, v.Data())
	assert.Equal(t, 16, v.Cap())
}

func TestAppendSliceCopyFailure(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[res](t)
	v := newResVector(t, a, 2, 1, 2)
	s := makeRes(t, a, 3, 4)
	fp := fingerprint(v)

	for _, extra := range []int{1, 3} {
		tr.failAt = tr.copies + extra
		assert.ErrorIs(t, v.AppendSlice(s), errCopy)
		assert.Equal(t, fp, fingerprint(v))
		assert.Equal(t, 2, v.Cap())
		assert.Len(t, tr.live, 4)
	}

	tr.failAt = -1
	require.NoError(t, v.AppendSlice(s))
	assert.Equal(t, []int64{1, 2, 3, 4}, vals(v.Data()))
	assert.Len(t, tr.live, 6)
	assertAllLive(t, v.Data())

	// with room left, only the new copies are built
	require.NoError(t, v.Reserve(8))
	tr.failAt = tr.copies + 1
	assert.ErrorIs(t, v.AppendSlice(s), errCopy)
	assert.Equal(t, 4, v.Len())
	assert.Len(t, tr.live, 6)
}

func TestSeq(t *testing.T) {
	a := newTestAlloc[int64](t)
	v, err := NewFromSeq(a, slices.Values([]int64{5, 6, 7}))
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7}, v.Data())

	require.NoError(t, v.AppendSeq(func(yield func(int64) bool) {
		for i := int64(0); i < 3; i++ {
			if !yield(i) {
				return
			}
		}
	}))
	assert.Equal(t, []int64{5, 6, 7, 0, 1, 2}, v.Data())

	var got []int64
	for i, x := range v.All() {
		if i == 4 {
			break
		}
		got = append(got, x)
	}
	assert.Equal(t, []int64{5, 6, 7, 0}, got)
}

func TestNewFilled(t *testing.T) {
	a := newTestAlloc[int32](t)
	v, err := NewFilled(a, 5, int32(3))
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 3, 3, 3, 3}, v.Data())

	newTracker(t)
	ra := newTestAlloc[res](t)
	proto := makeRes(t, ra, 7)
	rv, err := NewFilled(ra, 3, proto[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 7, 7}, vals(rv.Data()))
	assert.Len(t, tr.live, 4)

	tr.failAt = tr.copies + 1
	_, err = NewFilled(ra, 3, proto[0])
	assert.ErrorIs(t, err, errCopy)
	assert.Len(t, tr.live, 4)
}

func TestAccess(t *testing.T) {
	a := newTestAlloc[point](t)
	v, err := NewFromSlice(a, []point{{1, 1}, {2, 2}, {3, 3}})
	require.NoError(t, err)

	assert.False(t, v.Empty())
	assert.Equal(t, point{1, 1}, *v.Front())
	assert.Equal(t, point{3, 3}, *v.Back())
	v.At(1).X = 20
	assert.Equal(t, point{20, 2}, v.Data()[1])
	v.Set(2, point{4, 4})
	assert.Equal(t, point{4, 4}, *v.Back())
	assert.Equal(t, a, v.Allocator())
	assert.Equal(t, a.MaxCount(), v.MaxLen())

	assert.Panics(t, func() { v.At(3) })
	assert.Panics(t, func() { v.At(-1) })
	assert.Panics(t, func() { New(a).Front() })
	assert.Equal(t, 3, len(v.Data()))
	assert.Equal(t, 3, cap(v.Data()))
}

func TestSetDestroysOld(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[res](t)
	v := newResVector(t, a, 2, 1, 2)
	old := v.At(0).id
	n := makeRes(t, a, 9)
	v.Set(0, n[0])
	assert.False(t, tr.live[old])
	assert.Equal(t, []int64{9, 2}, vals(v.Data()))
}

func TestEraseAndPop(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[res](t)
	v := newResVector(t, a, 6, 0, 1, 2, 3, 4, 5)
	erased := ids(v.Data()[1:3])

	v.Erase(1, 3)
	assert.Equal(t, []int64{0, 3, 4, 5}, vals(v.Data()))
	assert.Equal(t, erased, tr.destroyed)
	assert.Equal(t, res{}, v.buf.elems[5])

	back := v.Back().id
	v.PopBack()
	assert.False(t, tr.live[back])
	assert.Equal(t, []int64{0, 3, 4}, vals(v.Data()))

	v.Erase(1, 1)
	assert.Equal(t, 3, v.Len())
	assert.Panics(t, func() { v.Erase(2, 1) })
	assert.Panics(t, func() { v.Erase(0, 4) })

	v.Clear()
	assert.True(t, v.Empty())
	assert.Equal(t, 6, v.Cap())
	assert.Empty(t, tr.live)
	assert.Panics(t, func() { v.PopBack() })
}

func TestReserveAndShrink(t *testing.T) {
	a := newTestAlloc[int64](t)
	v := New(a)
	require.NoError(t, v.Reserve(0))
	assert.Equal(t, 0, v.Cap())
	require.NoError(t, v.Reserve(100))
	assert.Equal(t, 100, v.Cap())
	require.NoError(t, v.Reserve(10))
	assert.Equal(t, 100, v.Cap())

	require.NoError(t, v.AppendSlice([]int64{1, 2, 3}))
	require.NoError(t, v.ShrinkToFit())
	assert.Equal(t, 3, v.Cap())
	assert.Equal(t, []int64{1, 2, 3}, v.Data())

	v.Clear()
	require.NoError(t, v.ShrinkToFit())
	assert.Equal(t, 0, v.Cap())

	assert.ErrorIs(t, v.Reserve(v.MaxLen()+1), ErrLengthOverflow)
}

func TestAssignCloneSwap(t *testing.T) {
	a := newTestAlloc[int64](t)
	v, err := NewFromSlice(a, []int64{1, 2, 3})
	require.NoError(t, err)
	data := &v.Data()[0]

	require.NoError(t, v.Assign([]int64{4, 5}))
	assert.Equal(t, []int64{4, 5}, v.Data())
	assert.Same(t, data, &v.Data()[0])

	require.NoError(t, v.Assign([]int64{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, v.Data())
	require.NoError(t, v.Assign(v.Data()[2:]))
	assert.Equal(t, []int64{3, 4, 5, 6}, v.Data())

	w, err := v.Clone()
	require.NoError(t, err)
	assert.Equal(t, v.Data(), w.Data())
	assert.Equal(t, w.Len(), w.Cap())
	*w.At(0) = 100
	assert.Equal(t, int64(3), *v.At(0))

	v.Swap(w)
	assert.Equal(t, int64(100), *v.At(0))
	assert.Equal(t, int64(3), *w.At(0))
}

func TestAssignCopyOnly(t *testing.T) {
	newTracker(t)
	a := newTestAlloc[res](t)
	v := newResVector(t, a, 4, 1, 2)
	s := makeRes(t, a, 7, 8, 9)
	fp := fingerprint(v)

	tr.failAt = tr.copies + 2
	assert.ErrorIs(t, v.Assign(s), errCopy)
	assert.Equal(t, fp, fingerprint(v))
	assert.Len(t, tr.live, 5)

	tr.failAt = -1
	require.NoError(t, v.Assign(s))
	assert.Equal(t, []int64{7, 8, 9}, vals(v.Data()))
	assert.Len(t, tr.live, 6)

	w, err := v.Clone()
	require.NoError(t, err)
	assert.Equal(t, vals(v.Data()), vals(w.Data()))
	assert.Len(t, tr.live, 9)
	w.Release()
	assert.Len(t, tr.live, 6)
}

func TestRelease(t *testing.T) {
	p := mempool.NewPool(nil)
	a, err := NewElementAllocator[int64](p)
	require.NoError(t, err)
	v, err := NewFromSlice(a, []int64{1, 2, 3, 4})
	require.NoError(t, err)

	free := p.FreeBlocks(mempool.ClassIndex(32))
	v.Release()
	assert.Equal(t, free+1, p.FreeBlocks(mempool.ClassIndex(32)))
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 0, v.Cap())
	v.Release()
}

func TestOutOfMemory(t *testing.T) {
	limit := malloc.NewLimitHost(malloc.HeapHost{}, 0)
	a, err := NewElementAllocator[int64](mempool.NewPool(&mempool.Option{Host: limit}))
	require.NoError(t, err)

	v := New(a)
	err = v.PushBack(1)
	assert.True(t, errors.Is(err, malloc.ErrOutOfMemory))
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 0, v.Cap())
	assert.ErrorIs(t, v.Reserve(1000), malloc.ErrOutOfMemory)

	limit.SetLimit(1 << 20)
	require.NoError(t, v.PushBack(1))
	limit.SetLimit(limit.InUse())
	for v.Len() < 64 {
		if err := v.PushBack(int64(v.Len())); err != nil {
			assert.ErrorIs(t, err, malloc.ErrOutOfMemory)
			break
		}
	}
	for i, x := range v.All() {
		assert.Equal(t, max(int64(i), 1), x)
	}
}

func BenchmarkPushBack(b *testing.B) {
	a, _ := NewElementAllocator[int64](nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v := New(a)
		for j := 0; j < 1024; j++ {
			_ = v.PushBack(int64(j))
		}
		v.Release()
	}
}

func BenchmarkInsertFront(b *testing.B) {
	a, _ := NewElementAllocator[int64](nil)
	v := New(a)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if v.Len() == 4096 {
			v.Clear()
		}
		_ = v.Insert(0, int64(i))
	}
}
