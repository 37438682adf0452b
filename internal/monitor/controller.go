// SPDX-License-Identifier: MIT
/*
Package monitor implements the concurrent capture-and-aggregation core:
one capture worker per audio input device feeding a bounded loudness
history, a periodic aggregator computing combined statistics and fault
flags across all devices, and a controller owning the lifecycle and the
shutdown switch.

Concurrency model:
- One goroutine per CaptureWorker, blocking only on its device's frames
- One goroutine for the Aggregator, blocking only on its timer
- No unit ever waits on another's progress; a stalled device cannot
  stall monitoring of the others
- Each DeviceBuffer has exactly one writer; readers take copies
*/
package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"soundlog/internal/audio"
	"soundlog/internal/config"
)

// SourceFactory builds the SampleSource for one device. Injected so tests
// and offline runs can substitute non-hardware sources.
type SourceFactory func(device audio.Device) SampleSource

// Controller owns the device set, the per-device buffers and workers, the
// aggregator schedule, and the shutdown switch.
type Controller struct {
	workers []*CaptureWorker
	agg     *Aggregator
	sig     *Signal
	timeout time.Duration
	log     zerolog.Logger

	shutdownOnce sync.Once
}

// NewController wires one worker per device plus the aggregator. pub may
// be nil when no presentation sink is registered.
func NewController(cfg *config.Config, devices []audio.Device, factory SourceFactory, pub Publisher, log zerolog.Logger) *Controller {
	workers := make([]*CaptureWorker, 0, len(devices))
	for _, dev := range devices {
		buffer := NewDeviceBuffer(cfg.Monitor.BufferCapacity)
		workers = append(workers, NewCaptureWorker(dev, factory(dev), buffer, pub, log))
	}

	return &Controller{
		workers: workers,
		agg:     NewAggregator(cfg.Monitor.AggregationPeriod, cfg.Monitor.FaultThreshold, workers, pub, log),
		sig:     NewSignal(),
		timeout: cfg.Monitor.ShutdownTimeout,
		log:     log.With().Str("component", "controller").Logger(),
	}
}

// Start spawns one goroutine per capture worker plus the aggregation
// loop. It returns immediately.
func (c *Controller) Start() {
	c.log.Info().Int("devices", len(c.workers)).Msg("starting capture workers")
	for _, w := range c.workers {
		go w.Run(c.sig)
	}
	go c.agg.Run(c.sig)
}

// Workers returns the controller's capture workers.
func (c *Controller) Workers() []*CaptureWorker {
	return c.workers
}

// Aggregator returns the controller's aggregation engine.
func (c *Controller) Aggregator() *Aggregator {
	return c.agg
}

// Signal returns the shutdown switch shared by all workers.
func (c *Controller) Signal() *Signal {
	return c.sig
}

// Shutdown flips the shutdown switch and waits for every worker and the
// aggregator to stop, bounded by the configured timeout. A worker that
// fails to stop in time is abandoned and logged; shutdown always
// completes. Idempotent: the second call is a no-op.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.log.Info().Msg("shutdown requested")
		c.sig.Trigger()

		deadline := time.NewTimer(c.timeout)
		defer deadline.Stop()
		expired := false

		for _, w := range c.workers {
			if c.waitStopped(w.Done(), deadline, &expired) {
				continue
			}
			c.log.Warn().
				Int("device", w.Device().ID).
				Str("state", w.State().String()).
				Msg("worker did not stop in time, abandoning")
		}

		if !c.waitStopped(c.agg.Done(), deadline, &expired) {
			c.log.Warn().Msg("aggregator did not stop in time, abandoning")
		}

		c.log.Info().Msg("shutdown complete")
	})
}

// waitStopped waits for done until the shared deadline fires. Once the
// deadline has expired, remaining waits degrade to non-blocking checks.
func (c *Controller) waitStopped(done <-chan struct{}, deadline *time.Timer, expired *bool) bool {
	if *expired {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	select {
	case <-done:
		return true
	case <-deadline.C:
		*expired = true
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}
