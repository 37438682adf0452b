package main

import (
	"os"
	"os/signal"
	"syscall"

	"soundlog/cmd"
	"soundlog/internal/audio"
	"soundlog/internal/config"
	"soundlog/internal/logging"
	"soundlog/internal/metrics"
	"soundlog/internal/monitor"
	"soundlog/internal/transport"
	"soundlog/internal/transport/udp"

	"github.com/rs/zerolog"
)

// main is the entry point for the loudness monitoring application.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize PortAudio
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Enumerate input devices and build transports
//
// 2. Concurrent Phase (Hot Path):
//   - One capture worker per input device computing loudness
//   - Aggregator publishing combined statistics on a fixed period
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop workers within a bounded timeout
//   - Clean up transports and PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	log := logging.New("info")

	if err := audio.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audio subsystem")
	}
	defer audio.Terminate()

	options, err := cmd.ParseArgs()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}
	if options.Config == nil {
		// Help or version output already printed.
		return
	}
	cfg := options.Config
	log = logging.New(cfg.LogLevel)

	// Handle one-off commands that don't require the monitor running.
	if options.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			log.Fatal().Err(err).Msg("failed to list devices")
		}
		return
	}

	devices, err := audio.InputDevices()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to enumerate input devices")
	}
	if len(devices) == 0 {
		log.Fatal().Msg("no audio input devices found")
	}
	log.Info().Int("devices", len(devices)).Msg("monitoring input devices")

	pub, cleanup := buildTransports(cfg, log)
	defer cleanup()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	factory := func(dev audio.Device) monitor.SampleSource {
		return audio.NewCaptureSource(dev, cfg.Audio)
	}
	controller := monitor.NewController(cfg, devices, factory, pub, log)
	controller.Start()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	controller.Shutdown()
}

// buildTransports assembles the configured publishing sinks into a single
// fanout. The returned cleanup closes every sink.
func buildTransports(cfg *config.Config, log zerolog.Logger) (transport.Fanout, func()) {
	var fanout transport.Fanout

	if cfg.Transport.ListenAddress != "" {
		wst := transport.NewWebSocketTransport(cfg.Transport.ListenAddress, log)
		wst.Handle("/metrics", metrics.Handler())
		wst.Start()
		fanout = append(fanout, wst)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up UDP transport")
		}
		publisher, err := udp.NewPublisher(sender, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up UDP transport")
		}
		fanout = append(fanout, publisher)
	}

	// Always keep a debug-level trace of published updates.
	fanout = append(fanout, transport.NewLoggingTransport(log))

	cleanup := func() {
		if err := fanout.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing transports")
		}
	}
	return fanout, cleanup
}
