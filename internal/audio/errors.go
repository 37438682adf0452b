package audio

import "errors"

// Sentinel errors for the capture taxonomy. Wrapped errors are matched
// with errors.Is.
var (
	// ErrDeviceUnavailable means a device could not be opened. Fatal to
	// that device's worker only.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrStreamRead is a transient read failure (e.g., input overflow).
	// The capture loop logs it and continues.
	ErrStreamRead = errors.New("transient stream read failure")

	// ErrStreamClosed means the stream is gone for good. The worker
	// transitions to stopping.
	ErrStreamClosed = errors.New("stream closed")
)
