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

const (
	// MaxSmallSize is the largest request served from size classes,
	// larger ones go to the host verbatim.
	MaxSmallSize = 4096

	// NumClasses is the number of size classes (and free lists).
	NumClasses = 56

	// DefaultRefillBlocks is how many blocks a refill tries to carve at once.
	DefaultRefillBlocks = 10
)

// alignment steps: every class below limit is a multiple of align.
// base is the index of the first class of the step.
var classSteps = [...]struct {
	limit int
	align int
	base  int
}{
	{128, 8, 0},
	{256, 16, 16},
	{512, 32, 24},
	{1024, 64, 32},
	{2048, 128, 40},
	{4096, 256, 48},
}

var classSizes [NumClasses]int

func init() {
	lower := 0
	for _, st := range classSteps {
		for sz := lower + st.align; sz <= st.limit; sz += st.align {
			classSizes[ClassIndex(sz)] = sz
		}
		lower = st.limit
	}
}

// AlignOf returns the alignment granularity of a request of n bytes.
// Sizes above MaxSmallSize keep the coarsest granularity.
func AlignOf(n int) int {
	for _, st := range classSteps {
		if n <= st.limit {
			return st.align
		}
	}
	return classSteps[len(classSteps)-1].align
}

// RoundUp rounds n up to a multiple of AlignOf(n).
func RoundUp(n int) int {
	a := AlignOf(n)
	return (n + a - 1) &^ (a - 1)
}

// ClassIndex returns the size class serving n bytes,
// or -1 if n is not a small request.
func ClassIndex(n int) int {
	if n <= 0 || n > MaxSmallSize {
		return -1
	}
	lower := 0
	for _, st := range classSteps {
		if n <= st.limit {
			return st.base + (n-lower+st.align-1)/st.align - 1
		}
		lower = st.limit
	}
	return -1
}

// ClassSize returns the block size of class i.
func ClassSize(i int) int {
	return classSizes[i]
}

// floorClass returns the largest class whose blocks fit in n bytes, or -1.
func floorClass(n int) int {
	if n >= MaxSmallSize {
		return NumClasses - 1
	}
	i := ClassIndex(n)
	if i < 0 {
		return -1
	}
	if classSizes[i] > n {
		i--
	}
	return i
}
