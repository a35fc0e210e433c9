package noise

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Peak returns max |buf[i]|, or 0 for an empty buffer.
func Peak(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(buf)), math.Abs(floats.Min(buf)))
}

// Normalize divides buf by its peak so every sample lies in [-1, 1] and
// returns the peak it used. A silent buffer (peak 0) is left as is.
func Normalize(buf []float64) float64 {
	peak := Peak(buf)
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return peak
	}
	for i := range buf {
		buf[i] /= peak
	}
	return peak
}

// ToFloat32 narrows the normalized sequence to the output sample type.
func ToFloat32(buf []float64) []float32 {
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = float32(v)
	}
	return out
}
