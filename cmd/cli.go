package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"soundlog/internal/config"
	"soundlog/pkg/build"
)

// Options is the parsed command line: the resolved configuration plus
// the requested one-off command, if any.
type Options struct {
	Command string // One-off command ("list"), empty for normal run.
	Config  *config.Config
}

// ParseArgs parses the command line, loads the configuration file, and
// applies any explicitly set flags on top of it.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetInfo()
	options := &Options{}
	ran := false

	var (
		configPath        string
		logLevel          string
		sampleRate        float64
		channels          int
		framesPerBuffer   int
		lowLatency        bool
		faultThreshold    float64
		bufferCapacity    int
		aggregationPeriod time.Duration
		listenAddress     string
		udpEnabled        bool
		udpTarget         string
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Multi-device audio loudness monitor",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ran = true
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			ran = true
		},
	}
	rootCmd.AddCommand(listCmd)

	// Configuration file
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to YAML configuration file. Default is config.yaml if present.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Logging level (debug, info, warn, error)")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture per device (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Monitoring Configuration
	rootCmd.PersistentFlags().Float64VarP(&faultThreshold, "fault-threshold", "t", config.DefaultFaultThreshold,
		"Mean loudness below this value flags a device as faulty")
	rootCmd.PersistentFlags().IntVarP(&bufferCapacity, "buffer-capacity", "n", config.DefaultBufferCapacity,
		"Number of loudness samples retained per device")
	rootCmd.PersistentFlags().DurationVarP(&aggregationPeriod, "aggregation-period", "p", config.DefaultAggregationPeriod,
		"Interval between combined statistics cycles")

	// Transport Configuration
	rootCmd.PersistentFlags().StringVar(&listenAddress, "listen", "",
		"WebSocket and metrics listen address (empty disables the listener)")
	rootCmd.PersistentFlags().BoolVar(&udpEnabled, "udp", false,
		"Send statistics snapshots over UDP")
	rootCmd.PersistentFlags().StringVar(&udpTarget, "udp-target", "",
		"Target address for UDP snapshots")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if !ran {
		// Help or version output was requested; nothing more to do.
		return options, nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Explicit flags win over the file and environment.
	flags := rootCmd.PersistentFlags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = sampleRate
	}
	if flags.Changed("channels") {
		cfg.Audio.Channels = channels
	}
	if flags.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = framesPerBuffer
	}
	if flags.Changed("low-latency") {
		cfg.Audio.LowLatency = lowLatency
	}
	if flags.Changed("fault-threshold") {
		cfg.Monitor.FaultThreshold = faultThreshold
	}
	if flags.Changed("buffer-capacity") {
		cfg.Monitor.BufferCapacity = bufferCapacity
	}
	if flags.Changed("aggregation-period") {
		cfg.Monitor.AggregationPeriod = aggregationPeriod
	}
	if flags.Changed("listen") {
		cfg.Transport.ListenAddress = listenAddress
	}
	if flags.Changed("udp") {
		cfg.Transport.UDPEnabled = udpEnabled
	}
	if flags.Changed("udp-target") {
		cfg.Transport.UDPTargetAddress = udpTarget
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options.Config = cfg
	return options, nil
}
