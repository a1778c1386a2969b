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

package unsafex

import (
	"reflect"
	"unsafe"
)

// SliceOf reinterprets the bytes of b as a []T of len(b)/sizeof(T) elements.
// The caller owns the memory layout: T must not contain Go pointers, and
// the first byte of b must be aligned for T.
func SliceOf[T any](b []byte) []T {
	var zero T
	sz := int(unsafe.Sizeof(zero))
	if sz == 0 || len(b) < sz {
		return nil
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		panic("unsafex: misaligned memory for element type")
	}
	return unsafe.Slice((*T)(p), len(b)/sz)
}

// BytesOf returns the memory of s[:len(s)] as bytes without copy.
func BytesOf[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// PointerFree reports whether values of T carry no Go pointers,
// i.e. whether they may live in memory the GC does not scan.
func PointerFree[T any]() bool {
	return !hasPointers(reflect.TypeOf((*T)(nil)).Elem())
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
