package soundfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// AIFF-C layout written by aifcWriter. Integer AIFF has no float sample
// type, so every AIFF extension gets an AIFC container with 'fl32' data.
const (
	aifcVersion1       = 0xA2805140
	aifcCompressionFl  = "fl32"
	aifcCompressionStr = "32-bit floating point"

	aifcFormSizeOffset   = 4
	aifcFrameCountOffset = 34
	aifcSoundSizeOffset  = 80
	aifcHeaderSize       = 92
)

type aifcWriter struct {
	out    *seekBuffer
	frames int
	closed bool
	frame  [4]byte
}

func newAIFCWriter(out *seekBuffer, sampleRate int) (*aifcWriter, error) {
	if _, err := out.Write(aifcHeader(sampleRate, 0)); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrFileWrite, err)
	}
	return &aifcWriter{out: out}, nil
}

// aifcHeader builds the FORM, FVER, COMM and SSND preamble for frames
// mono float samples.
func aifcHeader(sampleRate, frames int) []byte {
	var b bytes.Buffer
	dataSize := uint32(frames * 4)

	b.WriteString("FORM")
	binary.Write(&b, binary.BigEndian, uint32(aifcHeaderSize-8)+dataSize)
	b.WriteString("AIFC")

	b.WriteString("FVER")
	binary.Write(&b, binary.BigEndian, uint32(4))
	binary.Write(&b, binary.BigEndian, uint32(aifcVersion1))

	name := pascalString(aifcCompressionStr)
	b.WriteString("COMM")
	binary.Write(&b, binary.BigEndian, uint32(18+4+len(name)))
	binary.Write(&b, binary.BigEndian, uint16(1)) // channels
	binary.Write(&b, binary.BigEndian, uint32(frames))
	binary.Write(&b, binary.BigEndian, uint16(32)) // bits per sample
	rate := ieeeExtended(float64(sampleRate))
	b.Write(rate[:])
	b.WriteString(aifcCompressionFl)
	b.Write(name)

	b.WriteString("SSND")
	binary.Write(&b, binary.BigEndian, 8+dataSize)
	binary.Write(&b, binary.BigEndian, uint32(0)) // offset
	binary.Write(&b, binary.BigEndian, uint32(0)) // block size
	return b.Bytes()
}

func (w *aifcWriter) WriteFrame(sample float32) error {
	binary.BigEndian.PutUint32(w.frame[:], math.Float32bits(sample))
	if _, err := w.out.Write(w.frame[:]); err != nil {
		return fmt.Errorf("%w: frame %d: %w", ErrFileWrite, w.frames, err)
	}
	w.frames++
	return nil
}

func (w *aifcWriter) Frames() int { return w.frames }

func (w *aifcWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	patchErr := w.patchSizes()
	fileErr := w.out.close()
	if patchErr != nil {
		return fmt.Errorf("%w: %w", ErrFileClose, patchErr)
	}
	if fileErr != nil {
		return fmt.Errorf("%w: %w", ErrFileClose, fileErr)
	}
	return nil
}

// patchSizes rewrites the three length fields once the frame count is known.
func (w *aifcWriter) patchSizes() error {
	dataSize := uint32(w.frames * 4)
	patches := []struct {
		offset int64
		value  uint32
	}{
		{aifcFormSizeOffset, uint32(aifcHeaderSize-8) + dataSize},
		{aifcFrameCountOffset, uint32(w.frames)},
		{aifcSoundSizeOffset, 8 + dataSize},
	}
	var buf [4]byte
	for _, p := range patches {
		if _, err := w.out.Seek(p.offset, io.SeekStart); err != nil {
			return err
		}
		binary.BigEndian.PutUint32(buf[:], p.value)
		if _, err := w.out.Write(buf[:]); err != nil {
			return err
		}
	}
	_, err := w.out.Seek(0, io.SeekEnd)
	return err
}

// pascalString encodes s with a length prefix, padded to an even size.
func pascalString(s string) []byte {
	b := append([]byte{byte(len(s))}, s...)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	return b
}

// ieeeExtended encodes f as an 80-bit IEEE 754 extended float, the sample
// rate representation AIFF uses.
func ieeeExtended(f float64) [10]byte {
	var b [10]byte
	if f == 0 {
		return b
	}
	var sign uint16
	if f < 0 {
		sign = 0x8000
		f = -f
	}
	frac, exp := math.Frexp(f) // f = frac * 2^exp, frac in [0.5, 1)
	binary.BigEndian.PutUint16(b[0:], sign|uint16(exp-1+16383))
	binary.BigEndian.PutUint64(b[2:], uint64(math.Ldexp(frac, 64)))
	return b
}
