// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counter registry for system-level monitoring. Counters are
// registered lazily and safe to bump from the poll thread while other
// threads read snapshots.

package control

import (
	"sync"

	"go.uber.org/atomic"
)

// MetricsRegistry holds named monotonic counters.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Uint64
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Uint64),
	}
}

func (mr *MetricsRegistry) counter(key string) *atomic.Uint64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[key]; ok {
		return c
	}
	c = atomic.NewUint64(0)
	mr.counters[key] = c
	return c
}

// Inc bumps the counter by one.
func (mr *MetricsRegistry) Inc(key string) { mr.counter(key).Inc() }

// Add bumps the counter by n.
func (mr *MetricsRegistry) Add(key string, n uint64) { mr.counter(key).Add(n) }

// Get returns the current value of one counter.
func (mr *MetricsRegistry) Get(key string) uint64 { return mr.counter(key).Load() }

// GetSnapshot returns the latest value of every counter.
func (mr *MetricsRegistry) GetSnapshot() map[string]uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]uint64, len(mr.counters))
	for k, v := range mr.counters {
		out[k] = v.Load()
	}
	return out
}
