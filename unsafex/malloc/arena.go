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

package malloc

import (
	"fmt"
	"math/bits"
	"sort"
	"unsafe"
)

const (
	// arenaHeaderSize is reserved in front of every block: [4 bytes magic][4 bytes size].
	arenaHeaderSize = 8

	arenaMagic uint32 = 0xA7E4A000

	// DefaultArenaMinBlock is the smallest block an ArenaHost hands out (4KB).
	DefaultArenaMinBlock = 4 << 10

	// DefaultArenaMaxBlock is the largest block an ArenaHost hands out (1MB).
	DefaultArenaMaxBlock = 1 << 20
)

// ArenaHost is a bounded Host carving a fixed arena with a buddy system.
// It never grows: once the arena is exhausted Alloc returns ErrOutOfMemory,
// which makes it the host of choice for memory-capped pools.
type ArenaHost struct {
	arena []byte
	base  unsafe.Pointer

	// free[o] is a stack of free block offsets of order o,
	// an order-o block is minBlock<<o bytes.
	free [][]int

	// dirty is set when a non-root block is freed, i.e. buddies may be mergeable.
	dirty bool

	minBlock int
	minShift int
	maxBlock int
	maxOrder int
}

var _ Host = (*ArenaHost)(nil)

// NewArenaHost creates an ArenaHost over arena with the default block sizes.
func NewArenaHost(arena []byte) (*ArenaHost, error) {
	return NewArenaHostWithBlockSize(arena, DefaultArenaMinBlock, DefaultArenaMaxBlock)
}

// NewArenaHostWithBlockSize creates an ArenaHost over arena.
// minBlock and maxBlock must be powers of two with headerSize < minBlock <= maxBlock,
// and len(arena) must be a non-zero multiple of maxBlock.
func NewArenaHostWithBlockSize(arena []byte, minBlock, maxBlock int) (*ArenaHost, error) {
	if minBlock <= 0 || minBlock&(minBlock-1) != 0 {
		return nil, fmt.Errorf("min block size must be a power of two, got %d", minBlock)
	}
	if maxBlock <= 0 || maxBlock&(maxBlock-1) != 0 {
		return nil, fmt.Errorf("max block size must be a power of two, got %d", maxBlock)
	}
	if minBlock > maxBlock {
		return nil, fmt.Errorf("min block size (%d) must be <= max block size (%d)", minBlock, maxBlock)
	}
	if minBlock <= arenaHeaderSize {
		return nil, fmt.Errorf("min block size must be > %d, got %d", arenaHeaderSize, minBlock)
	}
	if len(arena) < maxBlock || len(arena)%maxBlock != 0 {
		return nil, fmt.Errorf("arena size must be a non-zero multiple of %d, got %d", maxBlock, len(arena))
	}
	minShift := bits.TrailingZeros(uint(minBlock))
	h := &ArenaHost{
		arena:    arena,
		base:     unsafe.Pointer(&arena[0]),
		minBlock: minBlock,
		minShift: minShift,
		maxBlock: maxBlock,
		maxOrder: bits.TrailingZeros(uint(maxBlock)) - minShift,
	}
	h.free = make([][]int, h.maxOrder+1)
	h.Reset()
	return h, nil
}

// Alloc returns n bytes from the arena.
// Requests larger than the max block size, or that no free block can
// satisfy even after merging buddies, fail with ErrOutOfMemory.
func (h *ArenaHost) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > h.maxBlock-arenaHeaderSize {
		return nil, fmt.Errorf("%w: arena block limit is %d, requested %d",
			ErrOutOfMemory, h.maxBlock-arenaHeaderSize, n)
	}
	order := h.orderOf(n + arenaHeaderSize)
	found := h.firstFree(order)
	if found < 0 && h.dirty {
		h.coalesce(order)
		found = h.firstFree(order)
		if found < 0 {
			h.dirty = false
		}
	}
	if found < 0 {
		return nil, fmt.Errorf("%w: arena has no free block of %d bytes", ErrOutOfMemory, h.minBlock<<order)
	}

	off := h.pop(found)
	// split down, the right halves go back to the lower orders
	for found > order {
		found--
		h.free[found] = append(h.free[found], off+h.minBlock<<found)
	}

	hdr := unsafe.Add(h.base, off)
	*(*uint32)(hdr) = arenaMagic
	*(*uint32)(unsafe.Add(hdr, 4)) = uint32(n)
	size := h.minBlock<<order - arenaHeaderSize
	return unsafe.Slice((*byte)(unsafe.Add(hdr, arenaHeaderSize)), size)[:n], nil
}

// Free returns b to the arena.
// It panics if b was not returned by Alloc, or was already freed.
func (h *ArenaHost) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	data := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	off := int(data-uintptr(h.base)) - arenaHeaderSize
	if off < 0 || off >= len(h.arena) {
		panic("arena: block not in arena")
	}
	hdr := unsafe.Add(h.base, off)
	if *(*uint32)(hdr) != arenaMagic {
		panic("arena: double free or invalid block")
	}
	block := cap(b) + arenaHeaderSize
	if int(*(*uint32)(unsafe.Add(hdr, 4))) > cap(b) || block&(block-1) != 0 {
		panic("arena: corrupted block size")
	}
	if off&(block-1) != 0 {
		panic("arena: misaligned block")
	}
	*(*uint32)(hdr) = 0
	order := h.orderOf(block)
	h.free[order] = append(h.free[order], off)
	if order < h.maxOrder {
		h.dirty = true
	}
}

// Available returns the bytes that could still be handed out, headers excluded.
func (h *ArenaHost) Available() int {
	n := 0
	for o, offs := range h.free {
		n += len(offs) * (h.minBlock<<o - arenaHeaderSize)
	}
	return n
}

// Reset forgets every allocation and makes the whole arena free again.
func (h *ArenaHost) Reset() {
	for o := range h.free {
		h.free[o] = h.free[o][:0]
	}
	for off := 0; off < len(h.arena); off += h.maxBlock {
		h.free[h.maxOrder] = append(h.free[h.maxOrder], off)
	}
	h.dirty = false
}

func (h *ArenaHost) orderOf(size int) int {
	if size <= h.minBlock {
		return 0
	}
	return bits.Len(uint(size-1)) - h.minShift
}

func (h *ArenaHost) firstFree(order int) int {
	for o := order; o <= h.maxOrder; o++ {
		if len(h.free[o]) > 0 {
			return o
		}
	}
	return -1
}

func (h *ArenaHost) pop(order int) int {
	s := h.free[order]
	off := s[len(s)-1]
	h.free[order] = s[:len(s)-1]
	return off
}

// coalesce merges free buddies bottom-up below target.
// Merged blocks of order o feed the pass of order o+1.
func (h *ArenaHost) coalesce(target int) {
	for o := 0; o < target && o < h.maxOrder; o++ {
		offs := h.free[o]
		if len(offs) < 2 {
			continue
		}
		sort.Ints(offs)
		size := h.minBlock << o
		kept := offs[:0]
		for i := 0; i < len(offs); {
			// the left buddy has the size bit clear and its buddy right after it
			if i+1 < len(offs) && offs[i]&size == 0 && offs[i+1] == offs[i]+size {
				h.free[o+1] = append(h.free[o+1], offs[i])
				i += 2
				continue
			}
			kept = append(kept, offs[i])
			i++
		}
		h.free[o] = kept
	}
}
