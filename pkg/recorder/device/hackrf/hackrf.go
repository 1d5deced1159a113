// Package hackrf backs the recorder with a HackRF One via libhackrf.
// hackrf.Init and hackrf.Exit are the caller's responsibility.
package hackrf

import (
	"context"
	"fmt"

	"github.com/samuel/go-hackrf/hackrf"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/sample"
)

const maxSampleRate = 20e6

const rawQueueDepth = 16

// Fixed receive gain. Gain configuration is out of scope for the recorder.
const lnaGainDB = 39

type HackRFDevice struct {
	device *hackrf.Device
}

func Open() (*HackRFDevice, error) {
	dev, err := hackrf.Open()
	if err != nil {
		return nil, fmt.Errorf("open hackrf: %w", err)
	}
	return &HackRFDevice{device: dev}, nil
}

func (h *HackRFDevice) MaxSampleRate() int {
	return maxSampleRate
}

func (h *HackRFDevice) SetupStream(centerFreq, sampleRate int) (device.Stream, error) {
	if sampleRate <= 0 || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("hackrf: rate %d: %w", sampleRate, device.ErrUnsupportedRate)
	}
	if err := h.device.SetFreq(uint64(centerFreq)); err != nil {
		return nil, fmt.Errorf("set center freq: %w", err)
	}
	if err := h.device.SetSampleRateManual(sampleRate*2, 2); err != nil {
		return nil, fmt.Errorf("set sample rate: %w", err)
	}
	if err := h.device.SetLNAGain(lnaGainDB); err != nil {
		return nil, fmt.Errorf("set lna gain: %w", err)
	}
	if err := h.device.SetBasebandFilterBandwidth(sampleRate); err != nil {
		return nil, fmt.Errorf("set baseband filter: %w", err)
	}

	return &stream{dev: h.device}, nil
}

func (h *HackRFDevice) Close() error {
	return h.device.Close()
}

type stream struct {
	dev *hackrf.Device

	raw  chan []byte
	done chan struct{}

	left   []byte
	active bool
}

// callback runs on the libhackrf transfer thread. Returning an error stops
// the RX run.
func (s *stream) callback(buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	select {
	case s.raw <- cp:
		return nil
	case <-s.done:
		return device.ErrStreamClosed
	}
}

func (s *stream) Activate(on bool) error {
	if on == s.active {
		return nil
	}
	if on {
		s.raw = make(chan []byte, rawQueueDepth)
		s.done = make(chan struct{})
		if err := s.dev.StartRX(s.callback); err != nil {
			return fmt.Errorf("start rx: %w", err)
		}
		s.active = true
		return nil
	}

	s.active = false
	close(s.done)
	if err := s.dev.StopRX(); err != nil {
		return fmt.Errorf("stop rx: %w", err)
	}
	return nil
}

func (s *stream) ReadBlock(ctx context.Context, buf []complex64) (int, error) {
	if !s.active {
		return 0, device.ErrStreamInactive
	}

	filled := 0
	for filled < len(buf) {
		if len(s.left) >= 2 {
			n := sample.CS8ToComplex64(s.left, buf[filled:])
			filled += n
			s.left = s.left[2*n:]
			continue
		}

		select {
		case <-ctx.Done():
			return filled, ctx.Err()
		case raw := <-s.raw:
			s.left = append(s.left, raw...)
		}
	}
	return filled, nil
}

func (s *stream) Close() error {
	if s.active {
		return s.Activate(false)
	}
	return nil
}
