// Package sample converts raw interleaved I/Q byte streams from SDR
// hardware into complex64 baseband samples.
package sample

// 256-entry tables so conversion is a pair of indexed loads per sample.
var (
	cu8LUT [256]float32
	cs8LUT [256]float32
)

func init() {
	for i := range cu8LUT {
		cu8LUT[i] = (float32(i) - 127.5) / 127.5
		cs8LUT[i] = float32(int8(i)) / 128.0
	}
}

// CU8ToComplex64 converts interleaved unsigned 8-bit I/Q pairs (the RTL-SDR
// wire format) into dst. It converts min(len(src)/2, len(dst)) samples and
// returns the number of complex samples written.
func CU8ToComplex64(src []byte, dst []complex64) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = complex(cu8LUT[src[2*i]], cu8LUT[src[2*i+1]])
	}
	return n
}

// CS8ToComplex64 converts interleaved signed 8-bit I/Q pairs (the HackRF
// wire format) into dst. Same contract as CU8ToComplex64.
func CS8ToComplex64(src []byte, dst []complex64) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = complex(cs8LUT[src[2*i]], cs8LUT[src[2*i+1]])
	}
	return n
}
