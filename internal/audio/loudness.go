// SPDX-License-Identifier: MIT
package audio

import (
	"math"

	gaudio "github.com/go-audio/audio"
)

// RMS returns the root mean square amplitude of the frame's signed sample
// values, the standard perceptual-loudness proxy. A nil or empty frame
// yields 0; the function never fails.
func RMS(frame *gaudio.IntBuffer) float64 {
	if frame == nil || len(frame.Data) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame.Data {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame.Data)))
}
