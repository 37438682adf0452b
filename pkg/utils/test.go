// SPDX-License-Identifier: MIT
//
// Package utils holds shared test helpers: deterministic signal
// generators and a transport double used by package tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport implements the transport.Transport interface for testing.
// It records everything sent through it instead of transmitting.
type MockTransport struct {
	mu   sync.Mutex
	Sent []any
}

// Send stores the data for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close is a no-op.
func (m *MockTransport) Close() error { return nil }

// SentCount returns the number of messages recorded so far.
func (m *MockTransport) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// SentCopy returns a snapshot of the recorded messages.
func (m *MockTransport) SentCopy() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// GenerateSineWave produces size 16-bit samples of a sine at the given
// frequency, scaled to 90% of full amplitude.
func GenerateSineWave(size int, sampleRate, frequency float64) []int {
	buffer := make([]int, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = int(math.Sin(2*math.Pi*frequency*tm) * math.MaxInt16 * 0.9)
	}
	return buffer
}

// GenerateSquareWave produces size 16-bit samples alternating between
// +amplitude and -amplitude every half period of the given frequency.
// Its RMS equals the amplitude exactly, which makes it convenient for
// loudness assertions.
func GenerateSquareWave(size int, sampleRate, frequency float64, amplitude int) []int {
	buffer := make([]int, size)
	half := sampleRate / frequency / 2
	for i := range buffer {
		if math.Mod(float64(i)/half, 2) < 1 {
			buffer[i] = amplitude
		} else {
			buffer[i] = -amplitude
		}
	}
	return buffer
}
