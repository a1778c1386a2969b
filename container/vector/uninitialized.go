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

// The Uninitialized* functions construct into raw storage obtained from
// an ElementAllocator. Element types without hooks take a bulk memory copy;
// the others are constructed one by one and, when one fails, the elements
// already built are destroyed in reverse order before the error returns.

// UninitializedCopy constructs copies of src into dst and returns the
// number of elements copied, which is the minimum of len(dst) and len(src).
func UninitializedCopy[T any](a *ElementAllocator[T], dst, src []T) (int, error) {
	n := min(len(dst), len(src))
	if err := a.ops.copyN(dst[:n], src[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// UninitializedCopyN constructs copies of the first n elements of src into dst.
// It panics if either slice is shorter than n.
func UninitializedCopyN[T any](a *ElementAllocator[T], dst, src []T, n int) (int, error) {
	return UninitializedCopy(a, dst[:n], src[:n])
}

// UninitializedMove relocates src into dst and returns the number of
// elements moved. Moved sources are dead on success and intact on failure.
// Types that can only be copied are copied, and their sources destroyed
// once every copy is done.
func UninitializedMove[T any](a *ElementAllocator[T], dst, src []T) (int, error) {
	n := min(len(dst), len(src))
	if err := a.ops.relocate(dst[:n], src[:n], -1); err != nil {
		return 0, err
	}
	return n, nil
}

// UninitializedFill constructs a copy of *v in every slot of dst.
func UninitializedFill[T any](a *ElementAllocator[T], dst []T, v *T) (int, error) {
	if err := a.ops.fillN(dst, v); err != nil {
		return 0, err
	}
	return len(dst), nil
}

// UninitializedFillN constructs a copy of *v in the first n slots of dst.
func UninitializedFillN[T any](a *ElementAllocator[T], dst []T, n int, v *T) (int, error) {
	return UninitializedFill(a, dst[:n], v)
}
