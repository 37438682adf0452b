package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the monitoring engine.
const (
	// Default values for the capture format
	DefaultSampleRate      = 44100 // CD-quality audio
	DefaultChannels        = 1     // Mono capture
	DefaultFramesPerBuffer = 4096  // Samples per frame read
	DefaultLowLatency      = false // Standard latency mode

	// Default values for the monitoring engine
	DefaultFaultThreshold    = 10.0            // Mean loudness below this flags a fault
	DefaultBufferCapacity    = 100             // Loudness samples retained per device
	DefaultAggregationPeriod = 5 * time.Second // Interval between stats cycles
	DefaultShutdownTimeout   = 5 * time.Second // Bounded wait for workers to stop

	// Hardware and processing limits
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxBufferCap    = 100000 // Upper bound on per-device history length
)

// NewConfig creates a Config populated with default values. This is the
// base configuration before applying a config file, environment variable
// overrides, or command line flags.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Monitor: MonitorConfig{
			FaultThreshold:    DefaultFaultThreshold,
			BufferCapacity:    DefaultBufferCapacity,
			AggregationPeriod: DefaultAggregationPeriod,
			ShutdownTimeout:   DefaultShutdownTimeout,
		},
		Transport: TransportConfig{
			ListenAddress:    "127.0.0.1:8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
		},
	}
}
