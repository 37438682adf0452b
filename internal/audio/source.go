// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	gaudio "github.com/go-audio/audio"
	"github.com/gordonklaus/portaudio"

	"soundlog/internal/config"
)

// CaptureSource pulls fixed-size frames from one live input device. It
// holds exclusive hardware access to the device between Open and Close;
// no two sources may open the same device concurrently.
//
// The frame returned by ReadFrame reuses a pre-allocated buffer and is
// only valid until the next ReadFrame call.
type CaptureSource struct {
	device Device
	format config.AudioConfig

	stream *portaudio.Stream
	in     []int16
	frame  *gaudio.IntBuffer
}

// NewCaptureSource creates a source for the given device at the given
// capture format. The stream is not opened until Open is called.
func NewCaptureSource(device Device, format config.AudioConfig) *CaptureSource {
	return &CaptureSource{device: device, format: format}
}

// Open acquires the device and starts its input stream. Failures wrap
// ErrDeviceUnavailable.
func (s *CaptureSource) Open() error {
	info, err := InputDevice(s.device.ID)
	if err != nil {
		return fmt.Errorf("%w: device %d (%s): %v", ErrDeviceUnavailable, s.device.ID, s.device.Name, err)
	}

	latency := info.DefaultHighInputLatency
	if s.format.LowLatency {
		latency = info.DefaultLowInputLatency
	}

	// Buffers sized for frames × channels, allocated once per session.
	size := s.format.FramesPerBuffer * s.format.Channels
	s.in = make([]int16, size)
	s.frame = &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: s.format.Channels,
			SampleRate:  int(s.format.SampleRate),
		},
		Data:           make([]int, size),
		SourceBitDepth: 16,
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: s.format.Channels,
			Latency:  latency,
		},
		SampleRate:      s.format.SampleRate,
		FramesPerBuffer: s.format.FramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, s.in)
	if err != nil {
		return fmt.Errorf("%w: device %d (%s): open stream: %v", ErrDeviceUnavailable, s.device.ID, s.device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: device %d (%s): start stream: %v", ErrDeviceUnavailable, s.device.ID, s.device.Name, err)
	}
	s.stream = stream

	return nil
}

// ReadFrame blocks until the next frame is captured. Input overflow is
// surfaced as a transient ErrStreamRead; anything else closes the stream
// from the caller's point of view.
func (s *CaptureSource) ReadFrame() (*gaudio.IntBuffer, error) {
	if s.stream == nil {
		return nil, fmt.Errorf("%w: device %d not open", ErrStreamClosed, s.device.ID)
	}

	if err := s.stream.Read(); err != nil {
		if err == portaudio.InputOverflowed {
			// The device outran us. Drop the frame and keep going.
			return nil, fmt.Errorf("%w: device %d: input overflow", ErrStreamRead, s.device.ID)
		}
		return nil, fmt.Errorf("%w: device %d: %v", ErrStreamClosed, s.device.ID, err)
	}

	for i, v := range s.in {
		s.frame.Data[i] = int(v)
	}
	return s.frame, nil
}

// Close releases the stream and the device. Idempotent and safe to call
// after a failed Open or ReadFrame.
func (s *CaptureSource) Close() error {
	if s.stream == nil {
		return nil
	}
	stream := s.stream
	s.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("device %d: stop stream: %w", s.device.ID, err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("device %d: close stream: %w", s.device.ID, err)
	}
	return nil
}
