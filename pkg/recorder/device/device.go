// Package device defines the hardware abstraction the recorder runs
// against. Backends live in subpackages; the driver switch is in
// cmd/recorder.
package device

import (
	"context"
	"errors"
)

// Failure classes shared by all backends. Driver-specific errors are
// wrapped so callers can classify a failure without knowing the backend.
var (
	ErrUnknownDriver   = errors.New("unknown driver")
	ErrUnsupportedRate = errors.New("unsupported sample rate")
	ErrStreamInactive  = errors.New("stream not active")
	ErrStreamClosed    = errors.New("stream closed")
)

// Device is an exclusive handle on one piece of radio hardware.
type Device interface {
	// SetupStream tunes the device and prepares a receive stream at the
	// given center frequency and sample rate. The stream is created
	// inactive.
	SetupStream(centerFreq, sampleRate int) (Stream, error)
	MaxSampleRate() int
	Close() error
}

// Stream is an active sample-delivery channel bound to a device.
type Stream interface {
	// Activate starts or stops sample delivery.
	Activate(on bool) error
	// ReadBlock blocks until len(buf) complex samples are available or
	// the context is canceled, and reports the number of samples written
	// into buf.
	ReadBlock(ctx context.Context, buf []complex64) (int, error)
	Close() error
}
