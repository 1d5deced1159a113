// Package recorder streams complex baseband samples from an SDR device
// for a fixed wall-clock duration and writes their real component to a
// mono 16-bit PCM WAV file.
package recorder

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/pcm"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/status"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/wavout"
	"github.com/open-weather-community/open-weather-ags/pkg/util"
)

// Options are the recording parameters. Defaults matching the reference
// capture live in the config package.
type Options struct {
	Driver     string
	CenterFreq int
	SampleRate int
	Duration   time.Duration
	Output     string
}

type Recorder struct {
	device   device.Device
	opts     Options
	writeAPI api.WriteAPI
	logger   zerolog.Logger
	status   *status.Server
}

type Option func(r *Recorder) error

func WithInfluxDB(writeAPI api.WriteAPI) Option {
	return func(r *Recorder) error {
		r.writeAPI = writeAPI
		return nil
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recorder) error {
		r.logger = logger
		return nil
	}
}

func WithStatusServer(srv *status.Server) Option {
	return func(r *Recorder) error {
		r.status = srv
		return nil
	}
}

func New(dev device.Device, options Options, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		device:   dev,
		opts:     options,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		logger:   log.Logger,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.opts.CenterFreq <= 0 || r.opts.SampleRate <= 0 || r.opts.Duration <= 0 {
		return nil, fmt.Errorf("must specify center freq, sample rate, and duration")
	}
	if r.opts.SampleRate/10 == 0 {
		return nil, fmt.Errorf("sample rate %d too low for one block per 100ms", r.opts.SampleRate)
	}
	if r.opts.Output == "" {
		return nil, fmt.Errorf("must specify output path")
	}

	return r, nil
}

// Run records for the configured duration. The stream and the output file
// are released on every exit path, including failures and cancellation, so
// an interrupted run still leaves a WAV file with a finalized header.
func (r *Recorder) Run(ctx context.Context) (err error) {
	if r.opts.SampleRate > r.device.MaxSampleRate() {
		return fmt.Errorf("sample rate %d > device max sample rate %d",
			r.opts.SampleRate, r.device.MaxSampleRate())
	}

	stream, err := r.device.SetupStream(r.opts.CenterFreq, r.opts.SampleRate)
	if err != nil {
		return fmt.Errorf("setup stream: %w", err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close stream: %w", cerr)
		}
	}()

	out, err := wavout.Create(r.opts.Output, r.opts.SampleRate)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if err := stream.Activate(true); err != nil {
		return fmt.Errorf("activate stream: %w", err)
	}
	defer func() {
		if cerr := stream.Activate(false); cerr != nil && err == nil {
			err = fmt.Errorf("deactivate stream: %w", cerr)
		}
	}()

	r.logger.Info().
		Str("driver", r.opts.Driver).
		Str("center_freq", util.MHzToString(r.opts.CenterFreq)).
		Str("sample_rate", util.MHzToString(r.opts.SampleRate)).
		Dur("duration", r.opts.Duration).
		Str("output", r.opts.Output).
		Msg("Starting")

	return r.record(ctx, stream, out)
}

// record pulls 100ms blocks until the wall clock passes the configured
// duration. The final block may push total recorded time slightly past it.
func (r *Recorder) record(ctx context.Context, stream device.Stream, out *wavout.Writer) error {
	blockSize := r.opts.SampleRate / 10
	block := make([]complex64, blockSize)
	frames := make([]int16, 0, blockSize)
	reals := make([]float64, blockSize)

	start := time.Now()
	lastLog := start
	for time.Since(start) < r.opts.Duration {
		var (
			n       int
			readErr error
		)
		readMicros := util.TimeOperationMicroseconds(func() {
			n, readErr = stream.ReadBlock(ctx, block)
		})
		if readErr != nil {
			return fmt.Errorf("read block: %w", readErr)
		}

		frames = pcm.FromComplex(block[:n], frames)
		if err := out.WriteFrames(frames); err != nil {
			return fmt.Errorf("write frames: %w", err)
		}

		for i := 0; i < n; i++ {
			reals[i] = float64(real(block[i]))
		}
		mean, stddev := stat.MeanStdDev(reals[:n], nil)

		go r.writeAPI.WritePoint(influxdb2.NewPoint("recorder.block",
			map[string]string{
				"driver":    r.opts.Driver,
				"frequency": util.MHzToString(r.opts.CenterFreq),
			},
			map[string]interface{}{
				"samples":          n,
				"bytes_written":    n * 2,
				"read_duration_us": readMicros,
				"real_mean":        mean,
				"real_stddev":      stddev,
				"total_frames":     out.Frames(),
			}, time.Now()))

		if r.status != nil {
			r.status.Update(status.Snapshot{
				Driver:         r.opts.Driver,
				CenterFreq:     r.opts.CenterFreq,
				SampleRate:     r.opts.SampleRate,
				FramesWritten:  out.Frames(),
				ElapsedSeconds: time.Since(start).Seconds(),
			})
		}

		if time.Since(lastLog) >= time.Second {
			r.logger.Info().
				Int("frames", out.Frames()).
				Dur("elapsed", time.Since(start)).
				Msg("recording")
			lastLog = time.Now()
		}
	}

	if r.status != nil {
		r.status.Update(status.Snapshot{
			Driver:         r.opts.Driver,
			CenterFreq:     r.opts.CenterFreq,
			SampleRate:     r.opts.SampleRate,
			FramesWritten:  out.Frames(),
			ElapsedSeconds: time.Since(start).Seconds(),
			Done:           true,
		})
	}

	r.logger.Info().
		Int("frames", out.Frames()).
		Str("output", r.opts.Output).
		Msg("recording complete")
	return nil
}
