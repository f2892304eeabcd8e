// Package timer collects per-phase latencies for one proofing job.
package timer

import (
	"maps"
	"sync"
	"time"
)

// Timer is safe for concurrent use by the fan-out tasks of one job.
type Timer struct {
	mu      sync.Mutex
	results map[string]float64
}

func New() *Timer {
	return &Timer{results: make(map[string]float64)}
}

// Time runs fn and records its duration under name.
func (t *Timer) Time(name string, fn func()) {
	start := time.Now()
	defer func() { t.Record(name, time.Since(start)) }()
	fn()
}

// Record stores d in milliseconds. Recording a name twice keeps the sum.
func (t *Timer) Record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[name] += float64(d.Microseconds()) / 1000
}

// Results returns a snapshot of all phases in milliseconds.
func (t *Timer) Results() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.results)
}
