package sample

import (
	"reflect"
	"testing"
)

func TestCU8ToComplex64(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		dst  []complex64
		want []complex64
		n    int
	}{{
		"extremes",
		[]byte{0x00, 0xFF},
		make([]complex64, 1),
		[]complex64{complex(-1, 1)},
		1,
	}, {
		"near zero",
		[]byte{127, 128},
		make([]complex64, 1),
		[]complex64{complex(-0.5/127.5, 0.5/127.5)},
		1,
	}, {
		"dst shorter than src",
		[]byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00},
		make([]complex64, 2),
		[]complex64{complex(-1, -1), complex(1, 1)},
		2,
	}, {
		"odd trailing byte ignored",
		[]byte{0xFF, 0xFF, 0x00},
		make([]complex64, 4),
		[]complex64{complex(1, 1), 0, 0, 0},
		1,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CU8ToComplex64(tt.src, tt.dst); got != tt.n {
				t.Errorf("CU8ToComplex64() = %d, want %d", got, tt.n)
			}
			if !reflect.DeepEqual(tt.dst, tt.want) {
				t.Errorf("dst = %v, want %v", tt.dst, tt.want)
			}
		})
	}
}

func TestCS8ToComplex64(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		want []complex64
	}{{
		"zero",
		[]byte{0, 0},
		[]complex64{0},
	}, {
		"max positive",
		[]byte{127, 127},
		[]complex64{complex(127.0/128.0, 127.0/128.0)},
	}, {
		"max negative",
		[]byte{0x80, 0x80},
		[]complex64{complex(-1, -1)},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]complex64, len(tt.want))
			if got := CS8ToComplex64(tt.src, dst); got != len(tt.want) {
				t.Errorf("CS8ToComplex64() = %d, want %d", got, len(tt.want))
			}
			if !reflect.DeepEqual(dst, tt.want) {
				t.Errorf("dst = %v, want %v", dst, tt.want)
			}
		})
	}
}

func TestConversionBounds(t *testing.T) {
	src := make([]byte, 512)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]complex64, 256)
	CU8ToComplex64(src, dst)
	for i, s := range dst {
		if real(s) < -1 || real(s) > 1 || imag(s) < -1 || imag(s) > 1 {
			t.Fatalf("sample %d out of unit range: %v", i, s)
		}
	}
	CS8ToComplex64(src, dst)
	for i, s := range dst {
		if real(s) < -1 || real(s) > 1 || imag(s) < -1 || imag(s) > 1 {
			t.Fatalf("sample %d out of unit range: %v", i, s)
		}
	}
}
