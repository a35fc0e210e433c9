package audio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pipeline queues rendered clips, applies crossfade, and outputs frames at real-time rate.
type Pipeline struct {
	clipCh  chan Clip
	frameCh chan []float32
	skipCh  chan struct{}
	logger  *zap.Logger

	mu           sync.RWMutex
	crossfadeDur time.Duration
	currentClip  ClipInfo
	clipPosition time.Duration
	clipDuration time.Duration
}

// NewPipeline creates an audio pipeline with the given crossfade duration.
func NewPipeline(crossfadeDuration time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		clipCh:       make(chan Clip, 8),
		frameCh:      make(chan []float32, 100),
		skipCh:       make(chan struct{}, 1),
		logger:       logger.Named("pipeline"),
		crossfadeDur: crossfadeDuration,
	}
}

// Frames returns the channel of outgoing frames (20ms each).
func (p *Pipeline) Frames() <-chan []float32 {
	return p.frameCh
}

// Enqueue adds a clip to the playback queue. It blocks while the queue is
// full and gives up when ctx is done.
func (p *Pipeline) Enqueue(ctx context.Context, c Clip) error {
	select {
	case p.clipCh <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueSize returns the number of clips waiting in the queue.
func (p *Pipeline) QueueSize() int {
	return len(p.clipCh)
}

// Skip interrupts the current clip.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// SetCrossfade changes the crossfade length from the next clip boundary on.
func (p *Pipeline) SetCrossfade(d time.Duration) {
	p.mu.Lock()
	p.crossfadeDur = d
	p.mu.Unlock()
}

// CrossfadeDuration returns the configured crossfade length.
func (p *Pipeline) CrossfadeDuration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.crossfadeDur
}

// Status returns current playback info.
func (p *Pipeline) Status() (clip ClipInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentClip, p.clipPosition, p.clipDuration
}

// Run starts the pipeline. Blocks until ctx is cancelled, then closes Frames.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	var pending *Clip
	var startFrame int

	for {
		var c Clip

		if pending != nil {
			c = *pending
			pending = nil
		} else {
			select {
			case <-ctx.Done():
				return
			case c = <-p.clipCh:
				startFrame = 0
			}
		}

		next, nextStart := p.playClip(ctx, ticker, c, startFrame)
		if next != nil {
			pending = next
			startFrame = nextStart
		} else {
			startFrame = 0
		}
	}
}

// crossfadeFrames returns how many frames the overlap spans for a clip of
// totalFrames, never more than half the clip.
func (p *Pipeline) crossfadeFrames(totalFrames int) int {
	cf := int(p.CrossfadeDuration() / FrameDuration)
	if cf > totalFrames/2 {
		cf = totalFrames / 2
	}
	return cf
}

// playClip plays a clip with crossfade into the next one if available.
// Returns the next clip and starting frame if a crossfade occurred.
func (p *Pipeline) playClip(ctx context.Context, ticker *time.Ticker, c Clip, startFrame int) (*Clip, int) {
	samples := c.Samples
	totalFrames := len(samples) / FrameSamples
	cfFrames := p.crossfadeFrames(totalFrames)
	cfStart := totalFrames - cfFrames

	p.setClip(c.Info, totalFrames)
	p.logger.Info("Now playing",
		zap.String("clip_id", c.Info.ID),
		zap.String("color", c.Info.Color),
		zap.Int("frames", totalFrames))

	for i := startFrame; i < cfStart; i++ {
		if !p.sendFrame(ctx, ticker, samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	var next *Clip
	select {
	case n := <-p.clipCh:
		next = &n
	default:
	}

	if next != nil {
		for i := 0; i < cfFrames; i++ {
			outPos := (cfStart + i) * FrameSamples
			inPos := i * FrameSamples

			if outPos+FrameSamples > len(samples) || inPos+FrameSamples > len(next.Samples) {
				break
			}

			progress := float64(i) / float64(cfFrames)
			frame := CrossfadeFrames(
				samples[outPos:outPos+FrameSamples],
				next.Samples[inPos:inPos+FrameSamples],
				progress,
			)

			if !p.sendFrame(ctx, ticker, frame) {
				if ctx.Err() != nil {
					return nil, 0
				}
				// Skipped mid-fade: next is already dequeued, so start it over.
				return next, 0
			}
			p.updatePosition(cfStart + i)
		}

		p.logger.Info("Crossfaded", zap.String("clip_id", next.Info.ID), zap.String("color", next.Info.Color))
		return next, cfFrames
	}

	// Nothing queued: play the tail without crossfade.
	for i := cfStart; i < totalFrames; i++ {
		if !p.sendFrame(ctx, ticker, samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	return nil, 0
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or cancel.
func (p *Pipeline) sendFrame(ctx context.Context, ticker *time.Ticker, frame []float32) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skipCh:
		p.logger.Info("Clip skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) setClip(info ClipInfo, totalFrames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentClip = info
	p.clipPosition = 0
	p.clipDuration = time.Duration(totalFrames) * FrameDuration
}

func (p *Pipeline) updatePosition(frameIdx int) {
	p.mu.Lock()
	p.clipPosition = time.Duration(frameIdx) * FrameDuration
	p.mu.Unlock()
}
