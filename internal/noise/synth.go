package noise

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Clip is the product of one synthesis run.
type Clip struct {
	Request Request
	Samples []float32 // normalized to [-1, 1]
	Peak    float64   // peak of the raw sequence before normalization
	Elapsed time.Duration
}

// Synthesizer runs the generation pipeline: generator, normalizer, converter.
type Synthesizer struct {
	rng    Gaussian
	limits Limits
	logger *zap.Logger
}

// NewSynthesizer creates a Synthesizer drawing from rng. A nil logger
// disables logging.
func NewSynthesizer(rng Gaussian, limits Limits, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{rng: rng, limits: limits, logger: logger}
}

// Synthesize validates req and produces a normalized clip. Validation
// happens before any buffer is allocated.
func (s *Synthesizer) Synthesize(req Request) (*Clip, error) {
	if err := req.Validate(s.limits); err != nil {
		return nil, err
	}
	gen, ok := GeneratorFor(req.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNoiseType, req.Type)
	}
	if s.rng == nil {
		return nil, fmt.Errorf("%w: no random source", ErrSubsystemInit)
	}

	start := time.Now()
	buf := make([]float64, req.TotalSamples())
	gen.Generate(buf, s.rng, req.SampleRate)
	peak := Normalize(buf)
	clip := &Clip{
		Request: req,
		Samples: ToFloat32(buf),
		Peak:    peak,
		Elapsed: time.Since(start),
	}

	s.logger.Debug("Synthesized clip",
		zap.Stringer("type", req.Type),
		zap.Int("samples", len(clip.Samples)),
		zap.Float64("peak", peak),
		zap.Duration("elapsed", clip.Elapsed),
	)
	return clip, nil
}
