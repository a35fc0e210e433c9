package soundfile

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatIEEEFloat is the WAVE_FORMAT_IEEE_FLOAT format tag.
const wavFormatIEEEFloat = 3

type wavWriter struct {
	out    *seekBuffer
	enc    *wav.Encoder
	frames int
	closed bool
}

func newWAVWriter(out *seekBuffer, sampleRate int) (*wavWriter, error) {
	enc := wav.NewEncoder(out, sampleRate, 32, 1, wavFormatIEEEFloat)
	// An empty buffer forces the RIFF, fmt and data headers out now, so a
	// zero-length clip still produces a valid file.
	empty := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate}}
	if err := enc.Write(empty); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrFileWrite, err)
	}
	return &wavWriter{out: out, enc: enc}, nil
}

func (w *wavWriter) WriteFrame(sample float32) error {
	if err := w.enc.WriteFrame(sample); err != nil {
		return fmt.Errorf("%w: frame %d: %w", ErrFileWrite, w.frames, err)
	}
	w.frames++
	return nil
}

func (w *wavWriter) Frames() int { return w.frames }

func (w *wavWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	encErr := w.enc.Close()
	fileErr := w.out.close()
	if encErr != nil {
		return fmt.Errorf("%w: %w", ErrFileClose, encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("%w: %w", ErrFileClose, fileErr)
	}
	return nil
}
