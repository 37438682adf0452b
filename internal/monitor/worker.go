// SPDX-License-Identifier: MIT
package monitor

import (
	"errors"
	"strconv"
	"sync/atomic"

	gaudio "github.com/go-audio/audio"
	"github.com/rs/zerolog"

	"soundlog/internal/audio"
	"soundlog/internal/metrics"
)

// SampleSource is one device's frame supplier. Open acquires the
// underlying resource, ReadFrame blocks until the next frame, and Close
// releases the resource (idempotent, safe after a prior failure).
// Implementations report transient failures as audio.ErrStreamRead and
// fatal ones as audio.ErrStreamClosed.
type SampleSource interface {
	Open() error
	ReadFrame() (*gaudio.IntBuffer, error)
	Close() error
}

// Publisher receives live status updates. Implementations must not block
// the caller; slow consumers drop messages.
type Publisher interface {
	Send(data any) error
}

// LevelUpdate is the per-frame status message a worker publishes.
type LevelUpdate struct {
	Type     string  `json:"type"`
	DeviceID int     `json:"device_id"`
	Device   string  `json:"device"`
	Loudness float64 `json:"loudness"`
}

// WorkerState is the lifecycle phase of a CaptureWorker.
type WorkerState int32

const (
	StateStarting WorkerState = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CaptureWorker drives one SampleSource in a loop: read a frame, compute
// its RMS loudness, push it to the device buffer, publish a level update,
// check the shutdown switch. One device's failure never affects another
// worker.
type CaptureWorker struct {
	device  audio.Device
	source  SampleSource
	buffer  *DeviceBuffer
	pub     Publisher // may be nil
	log     zerolog.Logger
	idLabel string

	state   atomic.Int32
	done    chan struct{}
	openErr error // written before done closes; read only after Done
}

// NewCaptureWorker wires a worker to its source and buffer. pub may be
// nil when no presentation sink is registered.
func NewCaptureWorker(device audio.Device, source SampleSource, buffer *DeviceBuffer, pub Publisher, log zerolog.Logger) *CaptureWorker {
	w := &CaptureWorker{
		device:  device,
		source:  source,
		buffer:  buffer,
		pub:     pub,
		log:     log.With().Int("device", device.ID).Str("name", device.Name).Logger(),
		idLabel: strconv.Itoa(device.ID),
		done:    make(chan struct{}),
	}
	w.state.Store(int32(StateStarting))
	return w
}

// Run executes the capture loop until the signal trips or the stream
// fails fatally. It is meant to run on its own goroutine; Done is closed
// when the worker reaches Stopped.
func (w *CaptureWorker) Run(sig *Signal) {
	defer close(w.done)
	defer w.state.Store(int32(StateStopped))

	if err := w.source.Open(); err != nil {
		// Fatal to this device only. Report once and stop cleanly.
		w.openErr = err
		w.log.Error().Err(err).Msg("cannot open capture source")
		w.source.Close()
		return
	}

	w.state.Store(int32(StateRunning))
	w.log.Info().Msg("capture started")

	for {
		if sig.Stopping() {
			break
		}

		frame, err := w.source.ReadFrame()
		if err != nil {
			// Re-check the switch as soon as a read fails so shutdown is
			// not mistaken for a stream fault.
			if sig.Stopping() {
				break
			}
			if errors.Is(err, audio.ErrStreamRead) {
				// One bad frame does not stop monitoring.
				metrics.ReadErrors.WithLabelValues(w.idLabel).Inc()
				w.log.Warn().Err(err).Msg("transient read error")
				continue
			}
			w.log.Error().Err(err).Msg("stream failed")
			break
		}

		loudness := audio.RMS(frame)
		w.buffer.Push(loudness)
		metrics.FramesCaptured.WithLabelValues(w.idLabel).Inc()
		metrics.Loudness.WithLabelValues(w.idLabel).Set(loudness)

		if w.pub != nil {
			w.pub.Send(LevelUpdate{
				Type:     "level",
				DeviceID: w.device.ID,
				Device:   w.device.Name,
				Loudness: loudness,
			})
		}
	}

	w.state.Store(int32(StateStopping))
	if err := w.source.Close(); err != nil {
		w.log.Warn().Err(err).Msg("error closing capture source")
	}
	w.log.Info().Msg("capture stopped")
}

// State returns the worker's current lifecycle phase.
func (w *CaptureWorker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Done returns a channel closed once the worker reaches Stopped.
func (w *CaptureWorker) Done() <-chan struct{} {
	return w.done
}

// OpenErr reports why the worker never started, or nil. Only valid after
// Done is closed.
func (w *CaptureWorker) OpenErr() error {
	return w.openErr
}

// Device returns the device this worker captures from.
func (w *CaptureWorker) Device() audio.Device {
	return w.device
}

// Buffer returns the worker's loudness history.
func (w *CaptureWorker) Buffer() *DeviceBuffer {
	return w.buffer
}
