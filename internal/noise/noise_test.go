package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"0", White, false},
		{"1", Pink, false},
		{"2", Red, false},
		{" 2 ", Red, false},
		{"white", White, false},
		{"Pink", Pink, false},
		{"RED", Red, false},
		{"brown", Red, false},
		{"3", 0, true},
		{"-1", 0, true},
		{"blue", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidNoiseType, "ParseType(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseType(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseType(%q)", tt.in)
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "White", White.String())
	assert.Equal(t, "Pink", Pink.String())
	assert.Equal(t, "Red", Red.String())
	assert.Equal(t, "Type(7)", Type(7).String())
}

func TestParseRequest(t *testing.T) {
	lim := DefaultLimits()

	req, err := ParseRequest("0", "1", "8000", lim)
	require.NoError(t, err)
	assert.Equal(t, Request{Type: White, Duration: 1, SampleRate: 8000}, req)
	assert.Equal(t, 8000, req.TotalSamples())

	req, err = ParseRequest("2", "2", "44100", lim)
	require.NoError(t, err)
	assert.Equal(t, 88200, req.TotalSamples())

	req, err = ParseRequest("1", "30", "48000", lim)
	require.NoError(t, err)
	assert.Equal(t, 30*48000, req.TotalSamples())

	req, err = ParseRequest("1", "0", "48000", lim)
	require.NoError(t, err)
	assert.Zero(t, req.TotalSamples())
}

func TestParseRequestErrors(t *testing.T) {
	lim := DefaultLimits()
	tests := []struct {
		name           string
		typ, dur, rate string
		want           error
	}{
		{"type out of range", "3", "1", "8000", ErrInvalidNoiseType},
		{"type checked first", "9", "99", "-1", ErrInvalidNoiseType},
		{"duration too long", "0", "31", "8000", ErrInvalidDuration},
		{"negative duration", "0", "-1", "8000", ErrInvalidDuration},
		{"duration before rate", "0", "40", "bogus", ErrInvalidDuration},
		{"duration not a number", "0", "ten", "8000", ErrInvalidDuration},
		{"zero rate", "0", "1", "0", ErrInvalidSampleRate},
		{"negative rate", "1", "1", "-44100", ErrInvalidSampleRate},
		{"rate not a number", "1", "1", "fast", ErrInvalidSampleRate},
		{"rate above bound", "1", "1", "10000000", ErrInvalidSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(tt.typ, tt.dur, tt.rate, lim)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateUsesLimits(t *testing.T) {
	lim := Limits{MaxDuration: 10, MaxSampleRate: 48000}
	assert.NoError(t, Request{Type: Pink, Duration: 10, SampleRate: 48000}.Validate(lim))
	assert.ErrorIs(t, Request{Type: Pink, Duration: 11, SampleRate: 48000}.Validate(lim), ErrInvalidDuration)
	assert.ErrorIs(t, Request{Type: Pink, Duration: 1, SampleRate: 48001}.Validate(lim), ErrInvalidSampleRate)
	assert.ErrorIs(t, Request{Type: Type(5), Duration: 1, SampleRate: 8000}.Validate(lim), ErrInvalidNoiseType)
}

func TestGeneratorForEveryType(t *testing.T) {
	for _, typ := range Types() {
		g, ok := GeneratorFor(typ)
		assert.True(t, ok, "no generator for %s", typ)
		assert.NotNil(t, g)
	}
	_, ok := GeneratorFor(Type(3))
	assert.False(t, ok)
}
