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

package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cloudwego/slabvec/cache/mempool"
	"github.com/cloudwego/slabvec/container/vector"
)

// sample is what the vector phase stores, one per pool operation.
type sample struct {
	Op    int64
	Size  int32
	Class int32
}

type Report struct {
	Ops       int
	VectorLen int
	VectorCap int
	Elapsed   time.Duration
	Stats     mempool.Stats
}

type liveBlock struct {
	b []byte
	n int
}

// runWorkload performs c.Iterations random allocations and frees on p,
// keeping at most c.LiveBlocks blocks alive, then appends c.VectorLen
// samples to a vector backed by p.
func runWorkload(c *Config, p *mempool.Pool, logger *zap.Logger) (*Report, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(c.Seed))
	r := &Report{}

	live := make([]liveBlock, 0, c.LiveBlocks)
	defer func() {
		for _, l := range live {
			p.Deallocate(l.b, l.n)
		}
	}()
	for ; r.Ops < c.Iterations; r.Ops++ {
		if len(live) < c.LiveBlocks && (len(live) == 0 || rng.Intn(2) == 0) {
			n := c.MinSize + rng.Intn(c.MaxSize-c.MinSize+1)
			b, err := p.Allocate(n)
			if err != nil {
				return r, fmt.Errorf("op %d: %w", r.Ops, err)
			}
			live = append(live, liveBlock{b, n})
			continue
		}
		k := rng.Intn(len(live))
		p.Deallocate(live[k].b, live[k].n)
		live[k] = live[len(live)-1]
		live = live[:len(live)-1]
	}
	logger.Debug("pool phase done", zap.Int("ops", r.Ops), zap.Int("live", len(live)))

	a, err := vector.NewElementAllocator[sample](p)
	if err != nil {
		return r, err
	}
	v := vector.New(a)
	defer v.Release()
	for i := 0; i < c.VectorLen; i++ {
		n := c.MinSize + rng.Intn(c.MaxSize-c.MinSize+1)
		s := sample{Op: int64(i), Size: int32(n), Class: int32(mempool.ClassIndex(n))}
		if err := v.PushBack(s); err != nil {
			return r, fmt.Errorf("vector append %d: %w", i, err)
		}
	}
	r.VectorLen, r.VectorCap = v.Len(), v.Cap()
	logger.Debug("vector phase done", zap.Int("len", r.VectorLen), zap.Int("cap", r.VectorCap))

	r.Stats = p.Stats()
	r.Elapsed = time.Since(start)
	return r, nil
}

func printReport(w io.Writer, r *Report) {
	s := r.Stats
	fmt.Fprintf(w, "operations:      %d in %v\n", r.Ops, r.Elapsed)
	fmt.Fprintf(w, "host calls:      %d allocs, %d frees\n", s.HostAllocs, s.HostFrees)
	fmt.Fprintf(w, "slabs:           %d, %d bytes, %d uncarved\n", s.SlabAllocs, s.HeapSize, s.SlabRemaining)
	fmt.Fprintf(w, "refills:         %d (%d scavenged)\n", s.Refills, s.Scavenged)
	fmt.Fprintf(w, "small:           %d allocs, %d frees\n", s.SmallAllocs, s.SmallFrees)
	fmt.Fprintf(w, "large:           %d allocs, %d frees\n", s.LargeAllocs, s.LargeFrees)
	fmt.Fprintf(w, "vector:          len %d, cap %d\n", r.VectorLen, r.VectorCap)
	fmt.Fprintln(w, "free blocks:")
	for i, n := range s.FreeBlocks {
		if n > 0 {
			fmt.Fprintf(w, "  class %2d (%4d bytes): %d\n", i, mempool.ClassSize(i), n)
		}
	}
}
