// SPDX-License-Identifier: MIT
package monitor

import (
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"soundlog/internal/metrics"
)

// Fault reasons reported in StatsSnapshot.
const (
	FaultReasonLowSignal = "mean loudness below threshold"
	FaultReasonNoData    = "no samples received"
)

// FaultFlag marks a device whose recent signal suggests disconnection or
// malfunction. Recomputed every cycle, never stored.
type FaultFlag struct {
	Faulty bool   `json:"faulty"`
	Reason string `json:"reason,omitempty"`
}

// DeviceStats carries one device's statistics for one cycle. HasData is
// the explicit no-data marker: a device with an empty buffer reports
// HasData=false rather than a zero mean that could be mistaken for
// silence.
type DeviceStats struct {
	DeviceID    int       `json:"device_id"`
	Device      string    `json:"device"`
	Mean        float64   `json:"mean"`
	Variance    float64   `json:"variance"`
	SampleCount int       `json:"sample_count"`
	HasData     bool      `json:"has_data"`
	Fault       FaultFlag `json:"fault"`
}

// CombinedStats pools every non-empty device buffer into one mean and
// variance.
type CombinedStats struct {
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	SampleCount int     `json:"sample_count"`
	HasData     bool    `json:"has_data"`
}

// StatsSnapshot is the immutable result of one aggregation cycle.
type StatsSnapshot struct {
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Combined  CombinedStats `json:"combined"`
	Devices   []DeviceStats `json:"devices"`
}

// Aggregator computes per-device and combined statistics on a fixed
// period, independent of capture cadence. It only ever reads buffer
// snapshots and never waits on a capture worker.
type Aggregator struct {
	period    time.Duration
	threshold float64
	workers   []*CaptureWorker
	pub       Publisher // may be nil
	log       zerolog.Logger
	done      chan struct{}
}

// NewAggregator creates an aggregator over the given workers. threshold
// is the loudness floor below which a device is flagged faulty.
func NewAggregator(period time.Duration, threshold float64, workers []*CaptureWorker, pub Publisher, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		period:    period,
		threshold: threshold,
		workers:   workers,
		pub:       pub,
		log:       log.With().Str("component", "aggregator").Logger(),
		done:      make(chan struct{}),
	}
}

// Run executes one cycle per period until the signal trips. Meant to run
// on its own goroutine; Done is closed on exit.
func (a *Aggregator) Run(sig *Signal) {
	defer close(a.done)

	ticker := time.NewTicker(a.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := a.Cycle(time.Now())
			metrics.AggregationCycles.Inc()

			faulty := 0
			for _, d := range snap.Devices {
				if d.Fault.Faulty {
					faulty++
					a.log.Warn().
						Int("device", d.DeviceID).
						Str("reason", d.Fault.Reason).
						Float64("mean", d.Mean).
						Msg("device flagged faulty")
				}
			}
			metrics.DevicesFaulty.Set(float64(faulty))

			if snap.Combined.HasData {
				a.log.Info().
					Float64("mean", snap.Combined.Mean).
					Float64("variance", snap.Combined.Variance).
					Int("samples", snap.Combined.SampleCount).
					Msg("combined stats")
			} else {
				a.log.Info().Msg("no data to aggregate")
			}

			if a.pub != nil {
				a.pub.Send(snap)
			}
		case <-sig.Done():
			return
		}
	}
}

// Cycle computes one StatsSnapshot across all device buffers. It never
// fails: an all-empty input set yields a snapshot with explicit no-data
// markers. Variance is population variance, matching the definition used
// for the fault thresholds.
func (a *Aggregator) Cycle(now time.Time) *StatsSnapshot {
	snap := &StatsSnapshot{
		Type:      "stats",
		Timestamp: now,
		Devices:   make([]DeviceStats, 0, len(a.workers)),
	}

	var pooled []float64
	for _, w := range a.workers {
		dev := w.Device()
		ds := DeviceStats{DeviceID: dev.ID, Device: dev.Name}

		vals := w.Buffer().Snapshot()
		if len(vals) == 0 {
			// A cycle only fires after a full period, so an empty buffer
			// here means a stalled worker or a device that never opened.
			ds.Fault = FaultFlag{Faulty: true, Reason: FaultReasonNoData}
		} else {
			mean, variance := stat.PopMeanVariance(vals, nil)
			ds.Mean = mean
			ds.Variance = variance
			ds.SampleCount = len(vals)
			ds.HasData = true
			if mean < a.threshold {
				ds.Fault = FaultFlag{Faulty: true, Reason: FaultReasonLowSignal}
			}
			pooled = append(pooled, vals...)
		}
		snap.Devices = append(snap.Devices, ds)
	}

	if len(pooled) > 0 {
		mean, variance := stat.PopMeanVariance(pooled, nil)
		snap.Combined = CombinedStats{
			Mean:        mean,
			Variance:    variance,
			SampleCount: len(pooled),
			HasData:     true,
		}
	}

	return snap
}

// Done returns a channel closed once the aggregation loop has exited.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}
