// Package rtlsdr backs the recorder with an RTL-SDR dongle via librtlsdr.
package rtlsdr

import (
	"context"
	"fmt"
	"sync"

	gsdr "github.com/jpoirier/gortlsdr"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/sample"
)

const maxSampleRate = 2e6

// Depth of the raw transfer queue between the librtlsdr callback and
// ReadBlock. Each transfer is ~256KiB, so this bounds buffered data well
// above one 100ms block at the maximum rate.
const rawQueueDepth = 16

type RTLSDRDevice struct {
	deviceIdx int
	device    *gsdr.Context
}

// Open claims the dongle at the given index.
func Open(deviceIdx int) (*RTLSDRDevice, error) {
	dev, err := gsdr.Open(deviceIdx)
	if err != nil {
		return nil, fmt.Errorf("open rtlsdr %d: %w", deviceIdx, err)
	}
	return &RTLSDRDevice{deviceIdx: deviceIdx, device: dev}, nil
}

func (r *RTLSDRDevice) MaxSampleRate() int {
	return maxSampleRate
}

func (r *RTLSDRDevice) SetupStream(centerFreq, sampleRate int) (device.Stream, error) {
	if sampleRate <= 0 || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("rtlsdr: rate %d: %w", sampleRate, device.ErrUnsupportedRate)
	}
	if err := r.device.SetCenterFreq(centerFreq); err != nil {
		return nil, fmt.Errorf("set center freq: %w", err)
	}
	if err := r.device.SetSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("set sample rate: %w", err)
	}
	if err := r.device.ResetBuffer(); err != nil {
		return nil, fmt.Errorf("reset buffer: %w", err)
	}

	return &stream{
		start: func(cb func(buf []byte)) error {
			return r.device.ReadAsync(cb, nil, 0, 0)
		},
		cancel: r.device.CancelAsync,
	}, nil
}

func (r *RTLSDRDevice) Close() error {
	return r.device.Close()
}

type stream struct {
	// start blocks running the driver's async read loop until cancel is
	// called, delivering transfers to the callback.
	start  func(cb func(buf []byte)) error
	cancel func() error

	raw  chan []byte
	errc chan error
	done chan struct{}
	wg   sync.WaitGroup

	// Unconsumed tail of the last transfer, carried between ReadBlock
	// calls.
	left   []byte
	active bool
}

// callback runs on the librtlsdr transfer thread. The driver reuses its
// buffers, so the payload is copied before it is queued.
func (s *stream) callback(buf []byte) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	select {
	case s.raw <- cp:
	case <-s.done:
	}
}

func (s *stream) Activate(on bool) error {
	if on == s.active {
		return nil
	}
	if on {
		s.raw = make(chan []byte, rawQueueDepth)
		s.errc = make(chan error, 1)
		s.done = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.start(s.callback); err != nil {
				s.errc <- err
			}
		}()
		s.active = true
		return nil
	}

	s.active = false
	close(s.done)
	// The read goroutine must be reaped even when the cancel itself
	// fails, or it can outlive the stream.
	err := s.cancel()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("cancel async read: %w", err)
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
			n := sample.CU8ToComplex64(s.left, buf[filled:])
			filled += n
			s.left = s.left[2*n:]
			continue
		}

		select {
		case <-ctx.Done():
			return filled, ctx.Err()
		case err := <-s.errc:
			return filled, fmt.Errorf("async read: %w", err)
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
