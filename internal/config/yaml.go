// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"soundlog/pkg/bitint"
)

// Config represents the main application configuration structure, loaded
// from YAML with environment variable overrides applied on top.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Capture format settings.
	Monitor   MonitorConfig   `yaml:"monitor"`   // Loudness monitoring settings.
	Transport TransportConfig `yaml:"transport"` // Status publishing settings.
}

// AudioConfig holds the capture format shared by every device stream.
type AudioConfig struct {
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	Channels        int     `yaml:"channels"`          // Input channels per device (1 for mono).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per frame read (power of 2).
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the device.
}

// MonitorConfig holds the loudness history and fault detection settings.
type MonitorConfig struct {
	FaultThreshold    float64       `yaml:"fault_threshold"`    // Mean loudness floor below which a device is flagged.
	BufferCapacity    int           `yaml:"buffer_capacity"`    // Loudness samples retained per device.
	AggregationPeriod time.Duration `yaml:"aggregation_period"` // Interval between stats cycles.
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`   // Bounded wait for workers during shutdown.
}

// TransportConfig holds settings for publishing status updates.
type TransportConfig struct {
	ListenAddress    string `yaml:"listen_address"`     // WebSocket + metrics HTTP listener ("" disables).
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Enable sending snapshots over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address for UDP packets.
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, built-in defaults are used. After loading, environment variable
// overrides are applied and the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the supported capture formats
// and monitoring bounds.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside supported range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) {
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2, got %d (next valid: %d)",
			c.Audio.FramesPerBuffer, bitint.NextPowerOfTwo(c.Audio.FramesPerBuffer))
	}
	if c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d exceeds maximum %d",
			c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Monitor.FaultThreshold < 0 {
		return fmt.Errorf("monitor.fault_threshold must be non-negative, got %g", c.Monitor.FaultThreshold)
	}
	if c.Monitor.BufferCapacity < 1 || c.Monitor.BufferCapacity > MaxBufferCap {
		return fmt.Errorf("monitor.buffer_capacity must be in [1, %d], got %d",
			MaxBufferCap, c.Monitor.BufferCapacity)
	}
	if c.Monitor.AggregationPeriod <= 0 {
		return fmt.Errorf("monitor.aggregation_period must be positive, got %s", c.Monitor.AggregationPeriod)
	}
	if c.Monitor.ShutdownTimeout <= 0 {
		return fmt.Errorf("monitor.shutdown_timeout must be positive, got %s", c.Monitor.ShutdownTimeout)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	return nil
}

// applyEnvOverrides applies SOUNDLOG_* environment variables on top of the
// loaded configuration. Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SOUNDLOG_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("SOUNDLOG_FAULT_THRESHOLD"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Monitor.FaultThreshold = fVal
		}
	}
	if val, ok := os.LookupEnv("SOUNDLOG_BUFFER_CAPACITY"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Monitor.BufferCapacity = iVal
		}
	}
	if val, ok := os.LookupEnv("SOUNDLOG_AGGREGATION_PERIOD"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Monitor.AggregationPeriod = dur
		}
	}
	if val, ok := os.LookupEnv("SOUNDLOG_LISTEN_ADDRESS"); ok {
		cfg.Transport.ListenAddress = val
	}
	if val, ok := os.LookupEnv("SOUNDLOG_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("SOUNDLOG_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
}
