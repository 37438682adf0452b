// SPDX-License-Identifier: MIT
package monitor

import "sync"

// Signal is the process-wide cooperative shutdown switch. It transitions
// running→stopping exactly once; every capture worker and the aggregator
// observe it at their loop boundaries.
type Signal struct {
	quit chan struct{}
	once sync.Once
}

// NewSignal creates a Signal in the running phase.
func NewSignal() *Signal {
	return &Signal{quit: make(chan struct{})}
}

// Trigger moves the signal to stopping. Safe to call any number of
// times; only the first has effect.
func (s *Signal) Trigger() {
	s.once.Do(func() { close(s.quit) })
}

// Done returns a channel closed once the signal is stopping, for use in
// select loops.
func (s *Signal) Done() <-chan struct{} {
	return s.quit
}

// Stopping reports whether shutdown has been requested.
func (s *Signal) Stopping() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}
