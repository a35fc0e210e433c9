package noise

import "math"

// RedNoise fills buf with a random walk whose steps have variance
// 1/sampleRate, so the walk's variance grows by one unit per second of audio
// regardless of the rate.
func RedNoise(buf []float64, rng Gaussian, sampleRate int) {
	if len(buf) == 0 {
		return
	}
	step := math.Sqrt(1.0 / float64(sampleRate))
	buf[0] = rng.Gaussian(0, step)
	for i := 1; i < len(buf); i++ {
		buf[i] = buf[i-1] + rng.Gaussian(0, step)
	}
}
