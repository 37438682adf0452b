// SPDX-License-Identifier: MIT

// Package transport delivers live status messages (per-device level
// updates and periodic stats snapshots) to whatever subscribers the
// application registers.
package transport

// Transport is a generic sink for status messages. Implementations must
// be safe for concurrent use and must not block the caller: a slow
// consumer drops messages instead of stalling capture.
type Transport interface {
	Send(data any) error
	Close() error
}

// Fanout delivers each message to every member transport. A member's
// send failure does not stop delivery to the others.
type Fanout []Transport

// Send forwards data to all members, returning the first error observed.
func (f Fanout) Send(data any) error {
	var first error
	for _, t := range f {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes all members, returning the first error observed.
func (f Fanout) Close() error {
	var first error
	for _, t := range f {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
