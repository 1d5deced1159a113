// Package file plays back a raw signed 8-bit I/Q capture (the HackRF dump
// format) as if it were live hardware. Reads are paced to the configured
// sample rate so wall-clock recording behaves as it would with a real
// device.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/sample"
)

const maxSampleRate = 20e6

type FileDevice struct {
	readFile *os.File
}

func Open(path string) (*FileDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playback file: %w", err)
	}
	return &FileDevice{readFile: f}, nil
}

func (f *FileDevice) MaxSampleRate() int {
	return maxSampleRate
}

func (f *FileDevice) SetupStream(centerFreq, sampleRate int) (device.Stream, error) {
	if sampleRate <= 0 || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("file: rate %d: %w", sampleRate, device.ErrUnsupportedRate)
	}
	return &stream{src: f.readFile, sampleRate: sampleRate}, nil
}

func (f *FileDevice) Close() error {
	return f.readFile.Close()
}

type stream struct {
	src        *os.File
	sampleRate int
	raw        []byte
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

	// Sleep for the span of time the block would take to arrive off the
	// air.
	wait := time.Duration(float64(len(buf)) / float64(s.sampleRate) * float64(time.Second))
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
	}

	if cap(s.raw) < 2*len(buf) {
		s.raw = make([]byte, 2*len(buf))
	}
	s.raw = s.raw[:2*len(buf)]

	n, err := io.ReadFull(s.src, s.raw)
	filled := sample.CS8ToComplex64(s.raw[:n], buf)
	if err != nil {
		return filled, fmt.Errorf("playback read: %w", err)
	}
	return filled, nil
}

func (s *stream) Close() error {
	s.active = false
	return nil
}
