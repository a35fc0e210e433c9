package noise

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PinkNoise fills buf with 1/f noise by shaping the spectrum of white noise.
// The result has zero mean and unit sample variance.
func PinkNoise(buf []float64, rng Gaussian, sampleRate int) {
	if len(buf) == 0 {
		return
	}
	WhiteNoise(buf, rng, sampleRate)

	// A length-1 transform is the identity and its only bin scales by 1.
	if len(buf) > 1 {
		spectrum := Forward(buf)
		ShapeSpectrum(spectrum)
		Inverse(buf, spectrum)
	}

	standardize(buf)
}

// Forward returns the length-N DFT of the real sequence seq, with the
// imaginary parts of the input taken as zero. N need not be a power of two.
func Forward(seq []float64) []complex128 {
	spectrum := make([]complex128, len(seq))
	for i, v := range seq {
		spectrum[i] = complex(v, 0)
	}
	if len(spectrum) < 2 {
		return spectrum
	}
	fft := fourier.NewCmplxFFT(len(spectrum))
	return fft.Coefficients(spectrum, spectrum)
}

// Inverse writes the real part of the normalized inverse DFT of spectrum into
// dst. The imaginary residue is dropped. spectrum is overwritten.
func Inverse(dst []float64, spectrum []complex128) {
	n := len(spectrum)
	if n >= 2 {
		fft := fourier.NewCmplxFFT(n)
		spectrum = fft.Sequence(spectrum, spectrum)
	}
	scale := 1 / float64(max(n, 1))
	for i := range dst {
		dst[i] = real(spectrum[i]) * scale
	}
}

// ShapeSpectrum applies 1/sqrt(f) amplitude weighting in place. Bins below
// ceil(N/2) are divided by sqrt(i+1); the mirrored upper half by sqrt(N-i).
// Neither denominator can reach zero.
func ShapeSpectrum(spectrum []complex128) {
	n := len(spectrum)
	mid := (n + 1) / 2
	for i := 0; i < mid; i++ {
		spectrum[i] /= complex(math.Sqrt(float64(i+1)), 0)
	}
	for i := mid; i < n; i++ {
		spectrum[i] /= complex(math.Sqrt(float64(n-i)), 0)
	}
}

// standardize rescales buf to zero mean and unit sample standard deviation.
// A constant buffer (or a single sample) only has its mean removed.
func standardize(buf []float64) {
	mean, std := stat.MeanStdDev(buf, nil)
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		std = 1
	}
	for i, v := range buf {
		buf[i] = (v - mean) / std
	}
}
