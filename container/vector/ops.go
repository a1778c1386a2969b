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

// ops builds elements into uninitialized storage. An ElementAllocator picks
// one implementation when it is created: bulkOps for types without Copier
// and Mover, hookOps otherwise.
type ops[T any] interface {
	// copyN constructs copies of src into dst, len(dst) == len(src).
	// On failure nothing in dst is live.
	copyN(dst, src []T) error

	// fillN constructs copies of *v into every slot of dst.
	// On failure nothing in dst is live.
	fillN(dst []T, v *T) error

	// relocate moves src into dst. With gap < 0, len(dst) == len(src);
	// otherwise len(dst) == len(src)+1 and dst[gap] is skipped.
	// On success src is dead. On failure src is intact and nothing in dst
	// except dst[gap] is live.
	relocate(dst, src []T, gap int) error
}

type bulkOps[T any] struct{}

func (bulkOps[T]) copyN(dst, src []T) error {
	copy(dst, src)
	return nil
}

func (bulkOps[T]) fillN(dst []T, v *T) error {
	if len(dst) == 0 {
		return nil
	}
	dst[0] = *v
	for n := 1; n < len(dst); n *= 2 {
		copy(dst[n:], dst[:n])
	}
	return nil
}

func (bulkOps[T]) relocate(dst, src []T, gap int) error {
	if gap < 0 {
		copy(dst, src)
		return nil
	}
	copy(dst[:gap], src[:gap])
	copy(dst[gap+1:], src[gap:])
	return nil
}

// hookOps constructs element by element through Copier and Mover.
type hookOps[T any] struct {
	a *ElementAllocator[T]
}

func (o hookOps[T]) copyN(dst, src []T) error {
	for i := range dst {
		if err := o.a.ConstructCopy(&dst[i], &src[i]); err != nil {
			o.a.rollback(dst[:i])
			return err
		}
	}
	return nil
}

func (o hookOps[T]) fillN(dst []T, v *T) error {
	for i := range dst {
		if err := o.a.ConstructCopy(&dst[i], v); err != nil {
			o.a.rollback(dst[:i])
			return err
		}
	}
	return nil
}

func (o hookOps[T]) relocate(dst, src []T, gap int) error {
	if o.a.traits.NothrowRelocatable {
		j := 0
		for i := range src {
			if j == gap {
				j++
			}
			o.a.ConstructMove(&dst[j], &src[i])
			j++
		}
		return nil
	}

	// copy only: sources stay live until every copy succeeded
	if gap < 0 {
		if err := o.copyN(dst, src); err != nil {
			return err
		}
	} else {
		if err := o.copyN(dst[:gap], src[:gap]); err != nil {
			return err
		}
		if err := o.copyN(dst[gap+1:], src[gap:]); err != nil {
			o.a.rollback(dst[:gap])
			return err
		}
	}
	o.a.DestroyRange(src)
	return nil
}
