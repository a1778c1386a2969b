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

package vector_test

import (
	"errors"
	"fmt"

	"github.com/cloudwego/slabvec/cache/mempool"
	"github.com/cloudwego/slabvec/container/vector"
)

func ExampleVector() {
	a, err := vector.NewElementAllocator[int64](mempool.NewPool(nil))
	if err != nil {
		panic(err)
	}
	v := vector.New(a)
	defer v.Release()

	for i := int64(1); i <= 3; i++ {
		_ = v.PushBack(i)
		fmt.Printf("len=%d cap=%d\n", v.Len(), v.Cap())
	}
	_ = v.Insert(1, 10)
	fmt.Println(v.Data())

	// Output:
	// len=1 cap=1
	// len=2 cap=2
	// len=3 cap=4
	// [1 10 2 3]
}

func ExampleVector_Emplace() {
	type pair struct{ K, V int32 }

	a, _ := vector.NewElementAllocator[pair](nil)
	v, _ := vector.NewFromSlice(a, []pair{{1, 1}, {2, 2}})

	err := v.Emplace(1, func(p *pair) error {
		return errors.New("no value")
	})
	fmt.Println(err, v.Data())

	_ = v.Emplace(1, func(p *pair) error {
		p.K, p.V = 9, 81
		return nil
	})
	fmt.Println(v.Data())

	// Output:
	// vector: construct element: no value [{1 1} {2 2}]
	// [{1 1} {9 81} {2 2}]
}

func ExampleNewElementAllocator() {
	_, err := vector.NewElementAllocator[[]int](nil)
	fmt.Println(errors.Is(err, vector.ErrPointerElem))

	// Output:
	// true
}
