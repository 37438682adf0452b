// SPDX-License-Identifier: MIT

// Package metrics registers the Prometheus collectors for the monitoring
// engine and exposes the HTTP handler that serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FramesCaptured counts frames successfully read per device.
	FramesCaptured = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundlog_frames_captured_total",
		Help: "Total audio frames captured, per device.",
	}, []string{"device"})

	// ReadErrors counts transient stream read failures per device.
	ReadErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundlog_read_errors_total",
		Help: "Transient stream read errors, per device.",
	}, []string{"device"})

	// Loudness tracks the most recent RMS loudness per device.
	Loudness = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "soundlog_loudness_rms",
		Help: "Most recent RMS loudness sample, per device.",
	}, []string{"device"})

	// AggregationCycles counts completed stats cycles.
	AggregationCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundlog_aggregation_cycles_total",
		Help: "Completed aggregation cycles.",
	})

	// DevicesFaulty tracks how many devices the last cycle flagged.
	DevicesFaulty = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "soundlog_devices_faulty",
		Help: "Devices flagged faulty in the most recent aggregation cycle.",
	})
)

func init() {
	prometheus.MustRegister(FramesCaptured, ReadErrors, Loudness, AggregationCycles, DevicesFaulty)
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
