// SPDX-License-Identifier: MIT
package monitor

import "sync"

// DeviceBuffer is a bounded FIFO history of loudness samples for one
// device. At capacity the oldest sample is evicted. Exactly one writer
// (the device's capture worker) pushes; any number of readers take
// snapshots. The writer is never blocked by a reader beyond the copy
// critical section, and a reader never observes a torn sample.
type DeviceBuffer struct {
	mu   sync.RWMutex
	vals []float64
	head int // index of the oldest sample
	n    int
}

// NewDeviceBuffer creates a buffer holding at most capacity samples.
func NewDeviceBuffer(capacity int) *DeviceBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &DeviceBuffer{vals: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest when at capacity. O(1).
func (b *DeviceBuffer) Push(v float64) {
	b.mu.Lock()
	if b.n == len(b.vals) {
		b.vals[b.head] = v
		b.head = (b.head + 1) % len(b.vals)
	} else {
		b.vals[(b.head+b.n)%len(b.vals)] = v
		b.n++
	}
	b.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the buffered samples in
// arrival order, safe to read while the writer continues.
func (b *DeviceBuffer) Snapshot() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]float64, b.n)
	for i := 0; i < b.n; i++ {
		out[i] = b.vals[(b.head+i)%len(b.vals)]
	}
	return out
}

// Len returns the number of buffered samples.
func (b *DeviceBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.n
}

// Cap returns the fixed capacity.
func (b *DeviceBuffer) Cap() int {
	return len(b.vals)
}

// IsEmpty reports whether no samples are buffered.
func (b *DeviceBuffer) IsEmpty() bool {
	return b.Len() == 0
}
