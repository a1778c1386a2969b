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

package mempool

import (
	"fmt"

	"go.uber.org/zap"
)

// refill returns one block of size bytes and links the other blocks
// carved along with it into the free list of its class.
// size must be a class size.
func (p *Pool) refill(size int) ([]byte, error) {
	chunk, nblocks, err := p.chunkAlloc(size, p.refillBlocks)
	if err != nil {
		return nil, err
	}
	p.stats.Refills++
	if nblocks > 1 {
		i := ClassIndex(size)
		// pushed backwards, so later pops walk the chunk in address order
		for k := nblocks - 1; k > 0; k-- {
			p.free[i] = append(p.free[i], chunk[k*size:(k+1)*size:(k+1)*size])
		}
	}
	return chunk[:size:size], nil
}

// chunkAlloc carves up to nblocks blocks of size bytes from the slab and
// returns them as one chunk, with the number of blocks actually carved.
//
// When the slab cannot hold a single block, its tail is donated to a free
// list and a new slab is requested from the host. If the host fails, a free
// block of a larger class becomes the slab. Each round either returns or
// refills the slab with room for at least one block, so the loop is bounded.
func (p *Pool) chunkAlloc(size, nblocks int) ([]byte, int, error) {
	for {
		need := size * nblocks
		left := len(p.slab)
		if left >= need {
			return p.carve(need), nblocks, nil
		}
		if left >= size {
			nblocks = left / size
			return p.carve(size * nblocks), nblocks, nil
		}

		p.donateSlab()
		get := 2*need + RoundUp(p.heapSize>>4)
		slab, err := p.host.Alloc(get)
		if err == nil {
			p.slabs = append(p.slabs, slab)
			p.slab = slab[:get]
			p.heapSize += get
			p.stats.HostAllocs++
			p.stats.SlabAllocs++
			p.logger.Debug("mempool: new slab",
				zap.Int("size", size),
				zap.Int("bytes", get),
				zap.Int("heapSize", p.heapSize))
			continue
		}
		if !p.scavenge(size) {
			p.logger.Error("mempool: out of memory",
				zap.Int("size", size),
				zap.Int("bytes", get),
				zap.Int("heapSize", p.heapSize),
				zap.Error(err))
			return nil, 0, fmt.Errorf("mempool: refill %d-byte blocks: %w", size, err)
		}
	}
}

func (p *Pool) carve(n int) []byte {
	b := p.slab[:n:n]
	p.slab = p.slab[n:]
	return b
}

// donateSlab links the slab tail into the largest class it can hold.
// Less than 8 bytes of tail are lost.
func (p *Pool) donateSlab() {
	if i := floorClass(len(p.slab)); i >= 0 {
		sz := classSizes[i]
		p.free[i] = append(p.free[i], p.slab[:sz:sz])
	}
	p.slab = nil
}

// scavenge turns one free block of a class larger than size into the slab.
func (p *Pool) scavenge(size int) bool {
	for i := ClassIndex(size) + 1; i < NumClasses; i++ {
		l := p.free[i]
		if len(l) == 0 {
			continue
		}
		b := l[len(l)-1]
		l[len(l)-1] = nil
		p.free[i] = l[:len(l)-1]
		p.slab = b[:cap(b)]
		p.stats.Scavenged++
		p.logger.Warn("mempool: host allocation failed, scavenging free block",
			zap.Int("size", size),
			zap.Int("class", i),
			zap.Int("bytes", cap(b)))
		return true
	}
	return false
}
