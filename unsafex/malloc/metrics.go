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

import "github.com/prometheus/client_golang/prometheus"

// MetricsHost reports the traffic reaching an upstream Host to prometheus.
// Sizes are accounted by cap, which is what the upstream really hands out.
type MetricsHost struct {
	upstream Host

	allocBytes prometheus.Counter
	allocCalls prometheus.Counter
	freeCalls  prometheus.Counter
	failures   prometheus.Counter
	inuseBytes prometheus.Gauge
}

var _ Host = (*MetricsHost)(nil)

// NewMetricsHost wraps upstream and registers its collectors on reg.
// reg may be nil, in which case the collectors are created but not registered.
func NewMetricsHost(upstream Host, reg prometheus.Registerer, namespace string) (*MetricsHost, error) {
	m := &MetricsHost{
		upstream: upstream,
		allocBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "host", Name: "alloc_bytes_total",
			Help: "Bytes obtained from the host allocator.",
		}),
		allocCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "host", Name: "alloc_calls_total",
			Help: "Successful calls to the host allocator.",
		}),
		freeCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "host", Name: "free_calls_total",
			Help: "Buffers returned to the host allocator.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "host", Name: "alloc_failures_total",
			Help: "Host allocations that failed.",
		}),
		inuseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "host", Name: "inuse_bytes",
			Help: "Bytes currently held from the host allocator.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.allocBytes, m.allocCalls, m.freeCalls, m.failures, m.inuseBytes} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *MetricsHost) Alloc(n int) ([]byte, error) {
	b, err := m.upstream.Alloc(n)
	if err != nil {
		m.failures.Inc()
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	m.allocCalls.Inc()
	m.allocBytes.Add(float64(cap(b)))
	m.inuseBytes.Add(float64(cap(b)))
	return b, nil
}

func (m *MetricsHost) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	m.freeCalls.Inc()
	m.inuseBytes.Sub(float64(cap(b)))
	m.upstream.Free(b)
}
