package noise

// WhiteNoise fills buf with independent standard normal draws.
func WhiteNoise(buf []float64, rng Gaussian, _ int) {
	for i := range buf {
		buf[i] = rng.Gaussian(0, 1)
	}
}
