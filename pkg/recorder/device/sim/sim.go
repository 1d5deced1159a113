// Package sim is a hardware-free backend that synthesizes a complex tone.
// It exists so the full record pipeline can run, and be tested, without a
// radio attached.
package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
)

const maxSampleRate = 20e6

// Device generates a constant-amplitude complex exponential at ToneHz,
// paced to the configured sample rate.
type Device struct {
	ToneHz    int
	Amplitude float64
}

func New(toneHz int) *Device {
	return &Device{ToneHz: toneHz, Amplitude: 1.0}
}

func (d *Device) MaxSampleRate() int {
	return maxSampleRate
}

func (d *Device) SetupStream(centerFreq, sampleRate int) (device.Stream, error) {
	if sampleRate <= 0 || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("sim: rate %d: %w", sampleRate, device.ErrUnsupportedRate)
	}
	return &stream{
		toneHz:     d.ToneHz,
		amplitude:  d.Amplitude,
		sampleRate: sampleRate,
	}, nil
}

func (d *Device) Close() error {
	return nil
}

type stream struct {
	toneHz     int
	amplitude  float64
	sampleRate int
	phase      float64
	active     bool
}

func (s *stream) Activate(on bool) error {
	s.active = on
	return nil
}

func (s *stream) ReadBlock(ctx context.Context, buf []complex64) (int, error) {
	if !s.active {
		return 0, device.ErrStreamInactive
	}

	wait := time.Duration(float64(len(buf)) / float64(s.sampleRate) * float64(time.Second))
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
	}

	step := 2 * math.Pi * float64(s.toneHz) / float64(s.sampleRate)
	for i := range buf {
		buf[i] = complex(
			float32(s.amplitude*math.Cos(s.phase)),
			float32(s.amplitude*math.Sin(s.phase)),
		)
		s.phase += step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return len(buf), nil
}

func (s *stream) Close() error {
	s.active = false
	return nil
}
