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

import (
	"errors"
	"fmt"
)

var (
	// ErrPointerElem is returned for element types that hold Go pointers,
	// which cannot live in pool memory the GC does not scan.
	ErrPointerElem = errors.New("vector: element type contains pointers")

	// ErrAlignment is returned for element types aligned beyond what
	// pool blocks guarantee.
	ErrAlignment = errors.New("vector: element alignment exceeds 8 bytes")

	// ErrLengthOverflow is returned when a request exceeds MaxLen elements.
	ErrLengthOverflow = errors.New("vector: length overflow")
)

// ConstructionError reports an element that failed to construct. Whatever
// the failing operation constructed before has already been destroyed.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("vector: construct element: %v", e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func constructionError(err error) error {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConstructionError{Err: err}
}
