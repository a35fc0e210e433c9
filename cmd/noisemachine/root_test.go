package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/noisemachine/internal/observability"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("NOISE_LOGGER_LEVEL", "error")
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRenderWhiteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "white.wav")
	code, stdout, stderr := runCLI(t, path, "0", "1", "8000")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Generating White Noise...")
	assert.Contains(t, stdout, "White Noise Generated!")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	require.NoError(t, dec.Err())
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(32), dec.BitDepth)
	assert.Equal(t, uint16(3), dec.WavAudioFormat, "IEEE float")
	require.NoError(t, dec.FwdToPCM())
	assert.Equal(t, int64(8000*4), dec.PCMLen(), "8000 frames")
}

func TestRenderRedAIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.aiff")
	code, stdout, stderr := runCLI(t, path, "2", "2", "44100")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Generating Red Noise...")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(92+88200*4), info.Size())
}

func TestRenderZeroDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	code, _, stderr := runCLI(t, path, "1", "0", "44100")
	require.Equal(t, 0, code, stderr)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(44), info.Size(), "header only")
}

func TestRenderSeededIsReproducible(t *testing.T) {
	t.Setenv("NOISE_SYNTH_SEED", "1234")
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")

	code, _, stderr := runCLI(t, a, "1", "1", "8000")
	require.Equal(t, 0, code, stderr)
	code, _, stderr = runCLI(t, b, "1", "1", "8000")
	require.Equal(t, 0, code, stderr)

	rawA, err := os.ReadFile(a)
	require.NoError(t, err)
	rawB, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, rawA, rawB)
}

func TestRenderRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"type out of range", []string{"clip.wav", "3", "1", "8000"}, "invalid noise type"},
		{"type not a number", []string{"clip.wav", "violet", "1", "8000"}, "invalid noise type"},
		{"negative duration", []string{"clip.wav", "0", "-1", "8000"}, "invalid duration"},
		{"duration too long", []string{"clip.wav", "0", "31", "8000"}, "invalid duration"},
		{"zero sample rate", []string{"clip.wav", "0", "1", "0"}, "invalid sample rate"},
		{"negative sample rate", []string{"clip.wav", "0", "1", "-8000"}, "invalid sample rate"},
		{"unknown extension", []string{"clip.xyz", "0", "1", "8000"}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append([]string{filepath.Join(dir, tt.args[0])}, tt.args[1:]...)

			code, _, stderr := runCLI(t, args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no file may be created")
		})
	}
}

func TestRenderArgumentCount(t *testing.T) {
	for _, args := range [][]string{{}, {"clip.wav"}, {"clip.wav", "0", "1"}, {"clip.wav", "0", "1", "8000", "extra"}} {
		code, _, stderr := runCLI(t, args...)
		assert.Equal(t, 1, code, "%v", args)
		assert.Contains(t, stderr, "wrong number of arguments", "%v", args)
		assert.Contains(t, stderr, "usage: noisemachine <outfile> <type> <duration> <samplerate>", "%v", args)
		assert.Contains(t, stderr, "(0 to 30)", "%v", args)
	}
}

func TestUsageQuotesConfiguredMaxDuration(t *testing.T) {
	t.Setenv("NOISE_SYNTH_MAX_DURATION", "10")
	t.Setenv("NOISE_SERVE_CLIP_DURATION", "5")

	code, _, stderr := runCLI(t, "clip.wav", "0", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "(0 to 10)")
	assert.NotContains(t, stderr, "(0 to 30)")

	dir := t.TempDir()
	code, _, stderr = runCLI(t, filepath.Join(dir, "clip.wav"), "0", "11", "8000")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid duration")
	assert.Contains(t, stderr, "0 to 10 seconds")
}

func TestRenderMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "clip.wav")
	code, _, stderr := runCLI(t, path, "0", "1", "8000")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "create")
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "noisemachine dev\n", stdout)
}

func TestServeStartsAndStops(t *testing.T) {
	t.Setenv("NOISE_LOGGER_LEVEL", "error")
	t.Setenv("NOISE_SERVE_OUTPUT_DIR", t.TempDir())
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"serve", "--port", "0"})
	assert.NoError(t, cmd.ExecuteContext(ctx), out.String())
}

func TestServeRejectsBadConfig(t *testing.T) {
	t.Setenv("NOISE_SERVE_CLIP_DURATION", "0")
	code, _, stderr := runCLI(t, "serve")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "serve.clip_duration")
}
