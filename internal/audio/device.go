package audio

// Device describes one host audio device. Devices are created once at
// startup enumeration and never mutated.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}
