package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
)

func TestSetupStreamRejectsBadRates(t *testing.T) {
	d := New(1000)
	for _, rate := range []int{0, -1, 40e6} {
		if _, err := d.SetupStream(100e6, rate); !errors.Is(err, device.ErrUnsupportedRate) {
			t.Errorf("rate %d: got %v, want ErrUnsupportedRate", rate, err)
		}
	}
}

func TestReadBlockRequiresActivation(t *testing.T) {
	d := New(1000)
	s, err := d.SetupStream(100e6, 48000)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]complex64, 16)
	if _, err := s.ReadBlock(context.Background(), buf); !errors.Is(err, device.ErrStreamInactive) {
		t.Fatalf("got %v, want ErrStreamInactive", err)
	}
}

func TestReadBlockTone(t *testing.T) {
	d := New(1000)
	s, err := d.SetupStream(100e6, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(true); err != nil {
		t.Fatal(err)
	}

	buf := make([]complex64, 4800)
	n, err := s.ReadBlock(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(buf) {
		t.Fatalf("short read: %d of %d", n, len(buf))
	}

	// Phase starts at zero: first sample is cos(0) + i*sin(0).
	if real(buf[0]) != 1 || imag(buf[0]) != 0 {
		t.Errorf("first sample = %v, want (1+0i)", buf[0])
	}

	// 1000 Hz at 48 kHz: one full cycle every 48 samples.
	if got := real(buf[48]); math.Abs(float64(got)-1) > 1e-3 {
		t.Errorf("sample at one cycle = %v, want ~1", got)
	}
	for i, v := range buf {
		mag := math.Hypot(float64(real(v)), float64(imag(v)))
		if math.Abs(mag-1) > 1e-3 {
			t.Fatalf("sample %d magnitude %f, want ~1", i, mag)
		}
	}
}

func TestReadBlockPacing(t *testing.T) {
	d := New(1000)
	s, err := d.SetupStream(100e6, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(true); err != nil {
		t.Fatal(err)
	}

	buf := make([]complex64, 4800) // 100ms at 48kHz
	start := time.Now()
	if _, err := s.ReadBlock(context.Background(), buf); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("block arrived in %v, want >= ~100ms pacing", elapsed)
	}
}

func TestReadBlockCancel(t *testing.T) {
	d := New(1000)
	s, err := d.SetupStream(100e6, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(true); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReadBlock(ctx, make([]complex64, 4800)); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
