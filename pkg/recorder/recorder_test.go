package recorder

import (
	"context"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/require"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device/sim"
)

const (
	testRate   = 48000
	testToneHz = 1000
)

func testOptions(output string) Options {
	return Options{
		Driver:     "sim",
		CenterFreq: 100e6,
		SampleRate: testRate,
		Duration:   300 * time.Millisecond,
		Output:     output,
	}
}

func TestNewValidation(t *testing.T) {
	dev := sim.New(testToneHz)
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero center freq", func(o *Options) { o.CenterFreq = 0 }},
		{"zero sample rate", func(o *Options) { o.SampleRate = 0 }},
		{"sub-block sample rate", func(o *Options) { o.SampleRate = 5 }},
		{"zero duration", func(o *Options) { o.Duration = 0 }},
		{"empty output", func(o *Options) { o.Output = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("out.wav")
			tt.mutate(&opts)
			if _, err := New(dev, opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunRejectsRateAboveDeviceMax(t *testing.T) {
	dev := sim.New(testToneHz)
	opts := testOptions(filepath.Join(t.TempDir(), "out.wav"))
	opts.SampleRate = 30e6

	rec, err := New(dev, opts)
	require.NoError(t, err)
	require.Error(t, rec.Run(context.Background()))
}

func TestRunEndToEnd(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.wav")
	dev := sim.New(testToneHz)

	rec, err := New(dev, testOptions(output))
	require.NoError(t, err)
	require.NoError(t, rec.Run(context.Background()))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.EqualValues(t, testRate, dec.SampleRate)
	require.EqualValues(t, 1, dec.NumChans)
	require.EqualValues(t, 16, dec.BitDepth)

	// 300ms at 48kHz is 14400 frames, give or take one 100ms block.
	want := testRate * 3 / 10
	blockSize := testRate / 10
	require.InDelta(t, want, len(buf.Data), float64(blockSize))
	require.Zero(t, len(buf.Data)%blockSize, "frames should be whole blocks")

	// The recorded real component is a cosine at the tone frequency;
	// its spectrum should peak at the matching FFT bin.
	x := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		x[i] = float64(s) / 32767.0
	}
	spectrum := fft.FFTReal(x)

	peakBin, peakMag := 0, 0.0
	for i := 1; i < len(spectrum)/2; i++ {
		if mag := cmplx.Abs(spectrum[i]); mag > peakMag {
			peakBin, peakMag = i, mag
		}
	}
	wantBin := int(math.Round(float64(testToneHz) * float64(len(x)) / float64(testRate)))
	require.InDelta(t, wantBin, peakBin, 1)
}

func TestRunCancelFinalizesOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.wav")
	dev := sim.New(testToneHz)

	opts := testOptions(output)
	opts.Duration = 10 * time.Second

	rec, err := New(dev, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, rec.Run(ctx), context.DeadlineExceeded)

	// Early exit must still leave a parseable WAV with the right header.
	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	require.NoError(t, dec.Err())
	require.EqualValues(t, testRate, dec.SampleRate)
	require.EqualValues(t, 1, dec.NumChans)
}
