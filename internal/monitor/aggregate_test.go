// SPDX-License-Identifier: MIT
package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"soundlog/pkg/utils"
)

// workerWithSamples builds a worker whose buffer is prefilled. The source
// is never run.
func workerWithSamples(id int, samples []float64) *CaptureWorker {
	w := NewCaptureWorker(testDevice(id), &fakeSource{}, NewDeviceBuffer(100), nil, zerolog.Nop())
	for _, v := range samples {
		w.Buffer().Push(v)
	}
	return w
}

func newTestAggregator(threshold float64, workers ...*CaptureWorker) *Aggregator {
	return NewAggregator(time.Second, threshold, workers, nil, zerolog.Nop())
}

func TestCycle_FaultDetectionAndCombinedMean(t *testing.T) {
	// Device 0 is healthy, device 1 sits near silence.
	agg := newTestAggregator(10,
		workerWithSamples(0, []float64{50, 52, 51}),
		workerWithSamples(1, []float64{2, 1, 3}),
	)

	snap := agg.Cycle(time.Now())

	if len(snap.Devices) != 2 {
		t.Fatalf("got %d device entries, expected 2", len(snap.Devices))
	}

	d0, d1 := snap.Devices[0], snap.Devices[1]
	if d0.Fault.Faulty {
		t.Errorf("device 0 flagged faulty (%s), expected healthy", d0.Fault.Reason)
	}
	if !d1.Fault.Faulty || d1.Fault.Reason != FaultReasonLowSignal {
		t.Errorf("device 1 fault = %+v, expected low-signal fault", d1.Fault)
	}
	if math.Abs(d0.Mean-51) > 1e-9 {
		t.Errorf("device 0 mean = %g, expected 51", d0.Mean)
	}
	if math.Abs(d1.Mean-2) > 1e-9 {
		t.Errorf("device 1 mean = %g, expected 2", d1.Mean)
	}

	if !snap.Combined.HasData {
		t.Fatal("combined stats should have data")
	}
	if math.Abs(snap.Combined.Mean-26.5) > 1e-9 {
		t.Errorf("combined mean = %g, expected 26.5", snap.Combined.Mean)
	}
	if snap.Combined.SampleCount != 6 {
		t.Errorf("combined sample count = %d, expected 6", snap.Combined.SampleCount)
	}
	// Population variance of the pooled samples.
	wantVar := 3605.5 / 6
	if math.Abs(snap.Combined.Variance-wantVar) > 1e-9 {
		t.Errorf("combined variance = %g, expected %g", snap.Combined.Variance, wantVar)
	}
}

func TestCycle_EmptyBuffersAreExplicit(t *testing.T) {
	agg := newTestAggregator(10,
		workerWithSamples(0, nil),
		workerWithSamples(1, nil),
	)

	snap := agg.Cycle(time.Now())

	if snap.Combined.HasData {
		t.Error("combined stats claim data for all-empty input")
	}
	for _, d := range snap.Devices {
		if d.HasData {
			t.Errorf("device %d claims data for an empty buffer", d.DeviceID)
		}
		if !d.Fault.Faulty || d.Fault.Reason != FaultReasonNoData {
			t.Errorf("device %d fault = %+v, expected no-data fault", d.DeviceID, d.Fault)
		}
		if d.Mean != 0 || d.Variance != 0 {
			t.Errorf("device %d reports stats %g/%g without data", d.DeviceID, d.Mean, d.Variance)
		}
	}
}

func TestCycle_MixedEmptyAndNonEmpty(t *testing.T) {
	agg := newTestAggregator(10,
		workerWithSamples(0, []float64{40, 60}),
		workerWithSamples(1, nil),
	)

	snap := agg.Cycle(time.Now())

	if !snap.Devices[0].HasData || snap.Devices[1].HasData {
		t.Fatalf("HasData flags wrong: %+v", snap.Devices)
	}
	// Combined stats pool only the non-empty buffers.
	if math.Abs(snap.Combined.Mean-50) > 1e-9 {
		t.Errorf("combined mean = %g, expected 50", snap.Combined.Mean)
	}
	if snap.Combined.SampleCount != 2 {
		t.Errorf("combined sample count = %d, expected 2", snap.Combined.SampleCount)
	}
}

func TestCycle_PooledMeanIsOrderIndependent(t *testing.T) {
	a := []float64{10, 20, 30}
	b := []float64{100, 200}
	c := []float64{55}

	fwd := newTestAggregator(0,
		workerWithSamples(0, a), workerWithSamples(1, b), workerWithSamples(2, c),
	).Cycle(time.Now())
	rev := newTestAggregator(0,
		workerWithSamples(0, c), workerWithSamples(1, b), workerWithSamples(2, a),
	).Cycle(time.Now())

	if math.Abs(fwd.Combined.Mean-rev.Combined.Mean) > 1e-9 {
		t.Errorf("combined mean depends on device order: %g vs %g", fwd.Combined.Mean, rev.Combined.Mean)
	}
	if math.Abs(fwd.Combined.Variance-rev.Combined.Variance) > 1e-9 {
		t.Errorf("combined variance depends on device order: %g vs %g", fwd.Combined.Variance, rev.Combined.Variance)
	}

	// The pooled mean equals the mean of all samples taken together.
	all := append(append(append([]float64{}, a...), b...), c...)
	var sum float64
	for _, v := range all {
		sum += v
	}
	want := sum / float64(len(all))
	if math.Abs(fwd.Combined.Mean-want) > 1e-9 {
		t.Errorf("combined mean = %g, expected %g", fwd.Combined.Mean, want)
	}
}

func TestCycle_SingleSampleVariance(t *testing.T) {
	agg := newTestAggregator(0, workerWithSamples(0, []float64{42}))
	snap := agg.Cycle(time.Now())

	d := snap.Devices[0]
	if !d.HasData || d.Mean != 42 || d.Variance != 0 {
		t.Errorf("single-sample stats = %+v, expected mean 42 variance 0", d)
	}
}

func TestCycle_ThresholdBoundary(t *testing.T) {
	// A mean exactly at the threshold is not a fault; only below it is.
	agg := newTestAggregator(10,
		workerWithSamples(0, []float64{10, 10, 10}),
		workerWithSamples(1, []float64{9.9, 9.9, 9.9}),
	)

	snap := agg.Cycle(time.Now())
	if snap.Devices[0].Fault.Faulty {
		t.Error("mean equal to threshold flagged faulty")
	}
	if !snap.Devices[1].Fault.Faulty {
		t.Error("mean below threshold not flagged")
	}
}

func TestAggregatorRun_PublishesSnapshots(t *testing.T) {
	pub := &utils.MockTransport{}
	workers := []*CaptureWorker{workerWithSamples(0, []float64{50, 52, 51})}
	agg := NewAggregator(10*time.Millisecond, 10, workers, pub, zerolog.Nop())
	sig := NewSignal()

	go agg.Run(sig)

	deadline := time.After(2 * time.Second)
	for pub.SentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("aggregator published nothing")
		case <-time.After(time.Millisecond):
		}
	}

	sig.Trigger()
	select {
	case <-agg.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator did not stop")
	}

	snap, ok := pub.SentCopy()[0].(*StatsSnapshot)
	if !ok {
		t.Fatalf("published %T, expected *StatsSnapshot", pub.SentCopy()[0])
	}
	if snap.Type != "stats" {
		t.Errorf("snapshot type = %q, expected %q", snap.Type, "stats")
	}
	if snap.Timestamp.IsZero() {
		t.Error("snapshot missing timestamp")
	}
	if math.Abs(snap.Combined.Mean-51) > 1e-9 {
		t.Errorf("combined mean = %g, expected 51", snap.Combined.Mean)
	}
}
