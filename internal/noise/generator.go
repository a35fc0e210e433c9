package noise

// Generator fills buf with a raw, unnormalized noise sequence.
type Generator interface {
	Generate(buf []float64, rng Gaussian, sampleRate int)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(buf []float64, rng Gaussian, sampleRate int)

// Generate calls f(buf, rng, sampleRate).
func (f GeneratorFunc) Generate(buf []float64, rng Gaussian, sampleRate int) {
	f(buf, rng, sampleRate)
}

var generators = map[Type]Generator{
	White: GeneratorFunc(WhiteNoise),
	Pink:  GeneratorFunc(PinkNoise),
	Red:   GeneratorFunc(RedNoise),
}

// GeneratorFor returns the generation strategy for t.
func GeneratorFor(t Type) (Generator, bool) {
	g, ok := generators[t]
	return g, ok
}
