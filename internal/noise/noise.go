package noise

import (
	"fmt"
	"strconv"
	"strings"
)

// Type selects the noise color. The numeric values match the command line
// encoding (0 = white, 1 = pink, 2 = red).
type Type int

const (
	White Type = iota
	Pink
	Red
)

const (
	DefaultMaxDuration   = 30     // seconds
	DefaultMaxSampleRate = 768000 // Hz
)

var typeNames = [...]string{"White", "Pink", "Red"}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Valid reports whether t is one of the supported colors.
func (t Type) Valid() bool {
	return t >= White && t <= Red
}

// Types returns every supported noise type in numeric order.
func Types() []Type {
	return []Type{White, Pink, Red}
}

// ParseType accepts either the numeric form ("0", "1", "2") or a color name.
// "brown" is an alias for red.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		t := Type(n)
		if !t.Valid() {
			return 0, fmt.Errorf("%w: %d (want 0, 1 or 2)", ErrInvalidNoiseType, n)
		}
		return t, nil
	}
	switch strings.ToLower(s) {
	case "white":
		return White, nil
	case "pink":
		return Pink, nil
	case "red", "brown":
		return Red, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidNoiseType, s)
}

// Limits bounds what a Request may ask for.
type Limits struct {
	MaxDuration   int
	MaxSampleRate int
}

// DefaultLimits returns the stock bounds: 30 seconds, 768 kHz.
func DefaultLimits() Limits {
	return Limits{MaxDuration: DefaultMaxDuration, MaxSampleRate: DefaultMaxSampleRate}
}

// Request describes one clip to synthesize.
type Request struct {
	Type       Type
	Duration   int // seconds
	SampleRate int
}

// TotalSamples is the length of every buffer in the run.
func (r Request) TotalSamples() int {
	return r.SampleRate * r.Duration
}

// Validate checks r against lim. Checks run in the same order the command
// line arguments are reported: type, duration, sample rate.
func (r Request) Validate(lim Limits) error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %d (want 0, 1 or 2)", ErrInvalidNoiseType, int(r.Type))
	}
	if r.Duration < 0 || r.Duration > lim.MaxDuration {
		return fmt.Errorf("%w: %d (want 0 to %d seconds)", ErrInvalidDuration, r.Duration, lim.MaxDuration)
	}
	if r.SampleRate <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidSampleRate, r.SampleRate)
	}
	if lim.MaxSampleRate > 0 && r.SampleRate > lim.MaxSampleRate {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidSampleRate, r.SampleRate, lim.MaxSampleRate)
	}
	return nil
}

// ParseRequest builds a Request from the raw type, duration and sample rate
// arguments and validates it.
func ParseRequest(typeArg, durationArg, rateArg string, lim Limits) (Request, error) {
	t, err := ParseType(typeArg)
	if err != nil {
		return Request{}, err
	}
	dur, err := strconv.Atoi(strings.TrimSpace(durationArg))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidDuration, durationArg)
	}
	// Duration is checked before the sample rate is parsed.
	if dur < 0 || dur > lim.MaxDuration {
		return Request{}, fmt.Errorf("%w: %d (want 0 to %d seconds)", ErrInvalidDuration, dur, lim.MaxDuration)
	}
	rate, err := strconv.Atoi(strings.TrimSpace(rateArg))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidSampleRate, rateArg)
	}
	req := Request{Type: t, Duration: dur, SampleRate: rate}
	if err := req.Validate(lim); err != nil {
		return Request{}, err
	}
	return req, nil
}
