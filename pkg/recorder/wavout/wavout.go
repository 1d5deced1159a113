// Package wavout writes mono 16-bit PCM WAV files incrementally.
package wavout

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth    = 16
	numChannels = 1
	pcmFormat   = 1
)

// Writer appends mono int16 frames to a WAV file. The RIFF header sizes are
// finalized on Close, so an abandoned Writer leaves a file with a zero-length
// data declaration.
type Writer struct {
	f      *os.File
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
}

// Create opens path for writing and prepares a WAV encoder declaring
// 1 channel, 16 bits per sample, and the given frame rate.
func Create(path string, sampleRate int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	return &Writer{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, bitDepth, numChannels, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// WriteFrames appends the samples as little-endian int16 frames.
func (w *Writer) WriteFrames(frames []int16) error {
	if cap(w.buf.Data) < len(frames) {
		w.buf.Data = make([]int, len(frames))
	}
	w.buf.Data = w.buf.Data[:len(frames)]
	for i, s := range frames {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav frames: %w", err)
	}
	w.frames += len(frames)
	return nil
}

// Frames returns the total number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close finalizes the RIFF header and closes the file.
func (w *Writer) Close() error {
	// The encoder defers the RIFF/fmt header until the first write. Force
	// it out for zero-frame files so the result is still a valid WAV.
	if w.frames == 0 {
		w.buf.Data = w.buf.Data[:0]
		if err := w.enc.Write(w.buf); err != nil {
			w.f.Close()
			return fmt.Errorf("write wav header: %w", err)
		}
	}
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("finalize wav header: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}
