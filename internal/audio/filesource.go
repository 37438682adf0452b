// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FileSource replays a WAV file as if it were a live input device, frame
// by frame. Useful for offline runs and tests that need a deterministic
// signal. End of file is reported as ErrStreamClosed, matching a device
// that disappeared.
type FileSource struct {
	path      string
	frameSize int

	f     *os.File
	dec   *wav.Decoder
	frame *gaudio.IntBuffer
}

// NewFileSource creates a source replaying path in frames of frameSize
// samples.
func NewFileSource(path string, frameSize int) *FileSource {
	return &FileSource{path: path, frameSize: frameSize}
}

// Open opens and validates the WAV file. Failures wrap ErrDeviceUnavailable.
func (s *FileSource) Open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, s.path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return fmt.Errorf("%w: %s: not a valid WAV file", ErrDeviceUnavailable, s.path)
	}

	s.f = f
	s.dec = dec
	s.frame = &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: int(dec.NumChans),
			SampleRate:  int(dec.SampleRate),
		},
		Data:           make([]int, s.frameSize*int(dec.NumChans)),
		SourceBitDepth: int(dec.BitDepth),
	}
	return nil
}

// ReadFrame decodes the next frame. The returned buffer is reused between
// calls. A short final frame is returned truncated; the read after it
// reports ErrStreamClosed.
func (s *FileSource) ReadFrame() (*gaudio.IntBuffer, error) {
	if s.dec == nil {
		return nil, fmt.Errorf("%w: %s not open", ErrStreamClosed, s.path)
	}

	s.frame.Data = s.frame.Data[:cap(s.frame.Data)]
	n, err := s.dec.PCMBuffer(s.frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrStreamClosed, s.path, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s: end of file", ErrStreamClosed, s.path)
	}
	s.frame.Data = s.frame.Data[:n]
	return s.frame, nil
}

// Close releases the file. Idempotent.
func (s *FileSource) Close() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	s.dec = nil
	return f.Close()
}
