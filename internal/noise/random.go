package noise

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian draws normally distributed deviates.
type Gaussian interface {
	Gaussian(mean, stddev float64) float64
}

// Source is a seeded PCG generator producing normal deviates.
// It is not safe for concurrent use; each run owns its own Source.
type Source struct {
	seed uint64
	src  rand.Source
}

// NewSource returns a Source seeded with seed. A zero seed picks one from
// the runtime's system-seeded generator, so runs differ.
func NewSource(seed uint64) *Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Source{
		seed: seed,
		src:  rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Seed returns the effective seed.
func (s *Source) Seed() uint64 { return s.seed }

// Gaussian returns a sample from N(mean, stddev²).
func (s *Source) Gaussian(mean, stddev float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: stddev, Src: s.src}.Rand()
}
