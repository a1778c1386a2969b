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

// Package mempool implements a single-threaded slab pool with segregated
// free lists. Small requests are rounded to one of NumClasses size classes
// and served from per-class free lists, which are refilled in batches from
// a slab obtained from the host allocator. Large requests bypass the pool.
//
// A Pool is not safe for concurrent use.
package mempool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cloudwego/slabvec/unsafex/malloc"
)

// Option configures a Pool.
type Option struct {
	// Host provides slabs and large blocks.
	Host malloc.Host

	// RefillBlocks is the number of blocks a refill tries to carve in one go.
	RefillBlocks int

	// Logger receives slab growth, scavenging and out-of-memory events.
	Logger *zap.Logger
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{
		Host:         malloc.HeapHost{},
		RefillBlocks: DefaultRefillBlocks,
		Logger:       zap.NewNop(),
	}
}

// Pool is a segregated free-list allocator.
//
// Every small block it returns has cap equal to its class size; Deallocate
// relies on that to validate the size the caller passes back.
type Pool struct {
	host         malloc.Host
	refillBlocks int
	logger       *zap.Logger

	// slab is the uncarved tail of the current slab: the cursor is &slab[0],
	// the end is &slab[len(slab)].
	slab []byte
	// slabs keeps every buffer obtained from host for Release.
	slabs [][]byte
	// heapSize is the total of slab bytes ever requested, it drives slab growth.
	heapSize int

	free [NumClasses][][]byte

	stats Stats
}

// Stats are counters of a Pool.
type Stats struct {
	HostAllocs    int // successful host allocations, slabs and large blocks
	HostFrees     int
	SlabAllocs    int
	HeapSize      int
	SlabRemaining int
	Refills       int
	Scavenged     int // free blocks turned into slabs after a host failure
	SmallAllocs   int
	SmallFrees    int
	LargeAllocs   int
	LargeFrees    int
	FreeBlocks    [NumClasses]int
}

// NewPool creates a Pool. A nil o, or zero fields of o, take the defaults.
func NewPool(o *Option) *Pool {
	d := DefaultOption()
	if o == nil {
		o = d
	}
	p := &Pool{host: o.Host, refillBlocks: o.RefillBlocks, logger: o.Logger}
	if p.host == nil {
		p.host = d.Host
	}
	if p.refillBlocks <= 0 {
		p.refillBlocks = d.RefillBlocks
	}
	if p.logger == nil {
		p.logger = d.Logger
	}
	return p
}

// Allocate returns a block of n bytes. len of the block is n; its content is undefined.
// n <= 0 returns nil.
//
// The only error is an allocation failure wrapping malloc.ErrOutOfMemory:
// the host could not serve the request and no larger free block was left to scavenge.
func (p *Pool) Allocate(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > MaxSmallSize {
		b, err := p.host.Alloc(n)
		if err != nil {
			p.logger.Error("mempool: large allocation failed", zap.Int("size", n), zap.Error(err))
			return nil, fmt.Errorf("mempool: allocate %d bytes: %w", n, err)
		}
		p.stats.HostAllocs++
		p.stats.LargeAllocs++
		return b[:n], nil
	}
	i := ClassIndex(n)
	var b []byte
	if l := p.free[i]; len(l) > 0 {
		b = l[len(l)-1]
		l[len(l)-1] = nil
		p.free[i] = l[:len(l)-1]
	} else {
		var err error
		if b, err = p.refill(classSizes[i]); err != nil {
			return nil, err
		}
	}
	p.stats.SmallAllocs++
	return b[:n], nil
}

// Deallocate returns b to the pool. n must be the size b was allocated with.
// It panics if b is a small block whose cap does not match n.
func (p *Pool) Deallocate(b []byte, n int) {
	if n <= 0 || cap(b) == 0 {
		return
	}
	if n > MaxSmallSize {
		p.host.Free(b)
		p.stats.HostFrees++
		p.stats.LargeFrees++
		return
	}
	i := ClassIndex(n)
	if cap(b) != classSizes[i] {
		panic(fmt.Sprintf("mempool: block of %d bytes freed as %d bytes", cap(b), n))
	}
	p.free[i] = append(p.free[i], b[:cap(b)])
	p.stats.SmallFrees++
}

// Reallocate is Deallocate(b, oldN) followed by Allocate(newN).
// The content of b is NOT carried over.
func (p *Pool) Reallocate(b []byte, oldN, newN int) ([]byte, error) {
	p.Deallocate(b, oldN)
	return p.Allocate(newN)
}

// FreeBlocks returns the number of blocks on the free list of class i.
func (p *Pool) FreeBlocks(i int) int {
	return len(p.free[i])
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	s := p.stats
	s.HeapSize = p.heapSize
	s.SlabRemaining = len(p.slab)
	for i := range p.free {
		s.FreeBlocks[i] = len(p.free[i])
	}
	return s
}

// Release returns every slab to the host and empties the pool.
// All small blocks ever handed out become invalid. Large blocks are not affected.
func (p *Pool) Release() {
	for i, s := range p.slabs {
		p.host.Free(s)
		p.stats.HostFrees++
		p.slabs[i] = nil
	}
	p.slabs = p.slabs[:0]
	for i := range p.free {
		p.free[i] = nil
	}
	p.slab = nil
	p.heapSize = 0
}
