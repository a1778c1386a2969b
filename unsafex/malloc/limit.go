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

package malloc

import "fmt"

// LimitHost caps the bytes an upstream Host may have outstanding.
// Requests that would exceed the budget fail with ErrOutOfMemory
// without reaching the upstream.
type LimitHost struct {
	upstream Host
	limit    int
	inuse    int
}

var _ Host = (*LimitHost)(nil)

// NewLimitHost wraps upstream with a budget of limit bytes.
func NewLimitHost(upstream Host, limit int) *LimitHost {
	return &LimitHost{upstream: upstream, limit: limit}
}

func (h *LimitHost) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if h.inuse+n > h.limit {
		return nil, fmt.Errorf("%w: budget %d, in use %d, requested %d", ErrOutOfMemory, h.limit, h.inuse, n)
	}
	b, err := h.upstream.Alloc(n)
	if err != nil {
		return nil, err
	}
	h.inuse += cap(b)
	return b, nil
}

func (h *LimitHost) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	h.inuse -= cap(b)
	h.upstream.Free(b)
}

// InUse returns the bytes currently charged against the budget.
func (h *LimitHost) InUse() int { return h.inuse }

// SetLimit changes the budget. Lowering it below InUse only affects later requests.
func (h *LimitHost) SetLimit(limit int) { h.limit = limit }
