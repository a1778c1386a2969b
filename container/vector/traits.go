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

// Element types opt into custom lifecycle logic by implementing these
// interfaces on their pointer type. A type implementing none of them is
// copied, relocated and dropped as plain memory.

// Copier is implemented by *T when copying a T needs more than a memory
// copy. CopyFrom is called on zeroed storage and may fail, in which case
// the destination is treated as never constructed.
type Copier[T any] interface {
	CopyFrom(src *T) error
}

// Mover is implemented by *T to relocate a value without failing.
// After MoveFrom the source is dead and is not destroyed.
type Mover[T any] interface {
	MoveFrom(src *T)
}

// Destroyer is implemented by *T to release what a live T holds.
type Destroyer interface {
	Destroy()
}

// Traits reports how an element type is handled.
type Traits struct {
	// TriviallyCopyable types are copied with a memory copy.
	TriviallyCopyable bool
	// TriviallyRelocatable types are moved between buffers with a memory copy.
	TriviallyRelocatable bool
	// TriviallyDestructible types need no teardown.
	TriviallyDestructible bool
	// NothrowRelocatable types relocate without any chance of failure,
	// either trivially or through Mover.
	NothrowRelocatable bool
}

func traitsOf[T any]() Traits {
	p := any((*T)(nil))
	_, copier := p.(Copier[T])
	_, mover := p.(Mover[T])
	_, destroyer := p.(Destroyer)
	return Traits{
		TriviallyCopyable:     !copier,
		TriviallyRelocatable:  !copier && !mover,
		TriviallyDestructible: !destroyer,
		NothrowRelocatable:    !copier || mover,
	}
}
