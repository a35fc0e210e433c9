package soundfile

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.wav", FormatWAV},
		{"OUT.WAV", FormatWAV},
		{"/tmp/dir.with.dots/noise.wav", FormatWAV},
		{"clip.aif", FormatAIFF},
		{"clip.aiff", FormatAIFF},
		{"clip.afc", FormatAIFC},
		{"clip.aifc", FormatAIFC},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	for _, bad := range []string{"clip.xyz", "clip", "clip.mp3", "wav"} {
		_, err := FormatFromPath(bad)
		assert.ErrorIs(t, err, ErrUnknownFormat, bad)
	}
}

func TestWriteWAVFloat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "white.wav")
	samples := make([]float32, 8000)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 10))
	}
	samples[0] = 1
	samples[1] = -1

	require.NoError(t, WriteFile(path, Props{SampleRate: 8000, Format: FormatWAV}, samples))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	require.NoError(t, dec.Err())
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(32), dec.BitDepth)
	assert.Equal(t, uint16(wavFormatIEEEFloat), dec.WavAudioFormat)
	require.NoError(t, dec.FwdToPCM())
	assert.Equal(t, int64(8000*4), dec.PCMLen(), "8000 mono float frames")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 44+8000*4)
	for i, want := range samples {
		got := math.Float32frombits(binary.LittleEndian.Uint32(raw[44+4*i:]))
		require.Equal(t, want, got, "frame %d", i)
	}
}

func TestWriteWAVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	require.NoError(t, WriteFile(path, Props{SampleRate: 44100, Format: FormatWAV}, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 44)
	assert.Equal(t, "RIFF", string(raw[0:4]))
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(raw[4:]))
	assert.Equal(t, "WAVE", string(raw[8:12]))
	assert.Equal(t, "data", string(raw[36:40]))
	assert.Zero(t, binary.LittleEndian.Uint32(raw[40:]))
}

func TestWriteAIFC(t *testing.T) {
	for _, name := range []string{"pink.aiff", "pink.aif", "pink.aifc", "pink.afc"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			format, err := FormatFromPath(path)
			require.NoError(t, err)

			samples := []float32{0, 0.5, -0.25, 1, -1}
			require.NoError(t, WriteFile(path, Props{SampleRate: 44100, Format: format}, samples))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Len(t, raw, aifcHeaderSize+len(samples)*4)

			assert.Equal(t, "FORM", string(raw[0:4]))
			assert.Equal(t, uint32(len(raw)-8), binary.BigEndian.Uint32(raw[4:]))
			assert.Equal(t, "AIFC", string(raw[8:12]))
			assert.Equal(t, "FVER", string(raw[12:16]))
			assert.Equal(t, "COMM", string(raw[24:28]))
			assert.Equal(t, uint16(1), binary.BigEndian.Uint16(raw[32:]))
			assert.Equal(t, uint32(len(samples)), binary.BigEndian.Uint32(raw[34:]))
			assert.Equal(t, uint16(32), binary.BigEndian.Uint16(raw[38:]))

			var ext [10]byte
			copy(ext[:], raw[40:50])
			assert.Equal(t, 44100.0, parseIEEEExtended(ext))
			assert.Equal(t, "fl32", string(raw[50:54]))
			assert.Equal(t, "SSND", string(raw[76:80]))
			assert.Equal(t, uint32(8+len(samples)*4), binary.BigEndian.Uint32(raw[80:]))

			for i, want := range samples {
				got := math.Float32frombits(binary.BigEndian.Uint32(raw[aifcHeaderSize+4*i:]))
				assert.Equal(t, want, got, "frame %d", i)
			}
		})
	}
}

func TestIEEEExtended(t *testing.T) {
	got := ieeeExtended(44100)
	assert.Equal(t, [10]byte{0x40, 0x0E, 0xAC, 0x44, 0, 0, 0, 0, 0, 0}, got)

	for _, rate := range []float64{0, 1, 8000, 22050, 48000, 96000, 768000, 11025.5, -48000} {
		assert.Equal(t, rate, parseIEEEExtended(ieeeExtended(rate)), "rate %v", rate)
	}
}

func TestCreateRejectsUnknownFormatWithoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.xyz")
	_, err := Create(path, Props{SampleRate: 8000, Format: FormatUnknown})
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file may be created")
}

func TestCreateMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "clip.wav")
	_, err := Create(path, Props{SampleRate: 8000, Format: FormatWAV})
	assert.ErrorIs(t, err, ErrFileCreate)
}

func TestWriteFailureStopsWriting(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs /dev/full")
	}
	for _, format := range []Format{FormatWAV, FormatAIFC} {
		w, err := Create("/dev/full", Props{SampleRate: 8000, Format: format})
		require.NoError(t, err, format)

		samples := make([]float32, 100000)
		n, err := WriteAll(w, samples)
		assert.ErrorIs(t, err, ErrFileWrite, format)
		assert.Less(t, n, len(samples), format)
		assert.Equal(t, n, w.Frames(), format)

		assert.ErrorIs(t, w.Close(), ErrFileClose, format)
		assert.NoError(t, w.Close(), "second close is a no-op")
	}
}

func TestFrames(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "n.wav"), Props{SampleRate: 100, Format: FormatWAV})
	require.NoError(t, err)
	n, err := WriteAll(w, []float32{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, w.Frames())
	require.NoError(t, w.Close())
}

func parseIEEEExtended(b [10]byte) float64 {
	se := binary.BigEndian.Uint16(b[0:])
	mant := binary.BigEndian.Uint64(b[2:])
	if se&0x7fff == 0 && mant == 0 {
		return 0
	}
	f := math.Ldexp(float64(mant), int(se&0x7fff)-16383-63)
	if se&0x8000 != 0 {
		f = -f
	}
	return f
}
