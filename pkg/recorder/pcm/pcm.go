// Package pcm converts complex baseband samples to 16-bit signed PCM.
package pcm

import "math"

const (
	maxSample = 32767
	minSample = -32768
)

// FromComplex converts the real component of each sample to a 16-bit PCM
// value scaled by 32767. Amplitudes beyond unit magnitude saturate at the
// int16 range rather than wrapping. The result is appended into dst's
// backing array when it has capacity, so a caller can reuse one buffer
// across blocks.
func FromComplex(src []complex64, dst []int16) []int16 {
	if cap(dst) < len(src) {
		dst = make([]int16, len(src))
	}
	dst = dst[:len(src)]
	for i, s := range src {
		v := math.Round(float64(real(s)) * maxSample)
		if v > maxSample {
			v = maxSample
		} else if v < minSample {
			v = minSample
		}
		dst[i] = int16(v)
	}
	return dst
}
