package soundfile

import (
	"bufio"
	"fmt"
	"os"
)

// Props describes the file to create. Output is always mono 32-bit float.
type Props struct {
	SampleRate int
	Format     Format
}

// Writer appends float frames to a sound file in order. Close finalizes the
// header and releases the file; it must be called on every path.
type Writer interface {
	WriteFrame(sample float32) error
	Frames() int
	Close() error
}

// Create opens path for writing and emits the container header. The format
// is checked before the file is touched.
func Create(path string, props Props) (Writer, error) {
	switch props.Format {
	case FormatWAV, FormatAIFF, FormatAIFC:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, props.Format)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFileCreate, path, err)
	}
	out := &seekBuffer{f: f, w: bufio.NewWriterSize(f, 64*1024)}

	var w Writer
	if props.Format == FormatWAV {
		w, err = newWAVWriter(out, props.SampleRate)
	} else {
		w, err = newAIFCWriter(out, props.SampleRate)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// WriteAll appends samples one frame at a time and stops at the first
// failure. It returns the number of frames written.
func WriteAll(w Writer, samples []float32) (int, error) {
	for i, s := range samples {
		if err := w.WriteFrame(s); err != nil {
			return i, err
		}
	}
	return len(samples), nil
}

// WriteFile creates path, writes samples and closes it. A close failure is
// reported when nothing else went wrong.
func WriteFile(path string, props Props, samples []float32) (err error) {
	w, err := Create(path, props)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = WriteAll(w, samples)
	return err
}

// seekBuffer batches the per-frame writes and flushes before every seek so
// header patches land after the data they describe.
type seekBuffer struct {
	f *os.File
	w *bufio.Writer
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	if err := b.w.Flush(); err != nil {
		return 0, err
	}
	return b.f.Seek(offset, whence)
}

// close flushes pending data and closes the file, keeping the first error.
func (b *seekBuffer) close() error {
	ferr := b.w.Flush()
	cerr := b.f.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
