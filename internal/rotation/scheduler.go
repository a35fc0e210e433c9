package rotation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/noisemachine/internal/audio"
	"github.com/satindergrewal/noisemachine/internal/metrics"
	"github.com/satindergrewal/noisemachine/internal/noise"
	"github.com/satindergrewal/noisemachine/internal/soundfile"
)

// Queue is the playback side the scheduler feeds.
type Queue interface {
	Enqueue(ctx context.Context, c audio.Clip) error
	QueueSize() int
	Skip()
}

// SchedulerConfig holds rotation parameters.
type SchedulerConfig struct {
	StartingColor string
	ClipDuration  int    // seconds
	BufferAhead   int    // clips to pre-render
	DwellMin      int    // min seconds per color
	DwellMax      int    // max seconds per color
	OutputDir     string // WAV copies of rendered clips
}

// SchedulerStatus is the current state of the rotation.
type SchedulerStatus struct {
	Color          string  `json:"color"`
	Description    string  `json:"description"`
	AutoRotate     bool    `json:"auto_rotate"`
	Idle           bool    `json:"idle"`
	DwellRemaining float64 `json:"dwell_remaining"` // seconds
	QueueSize      int     `json:"queue_size"`
	ClipDuration   int     `json:"clip_duration"`
}

// Scheduler manages color transitions and clip rendering.
type Scheduler struct {
	synth  *noise.Synthesizer
	queue  Queue
	logger *zap.Logger

	mu              sync.RWMutex
	cfg             SchedulerConfig
	currentColor    string
	autoRotate      bool
	idle            bool
	dwellEnd        time.Time
	listenerCountFn func() int
	written         []string

	colorOverrideCh chan string
	pollInterval    time.Duration
}

// NewScheduler creates a rotation scheduler. The synthesizer must not be
// shared with other goroutines.
func NewScheduler(synth *noise.Synthesizer, queue Queue, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !IsValidColor(cfg.StartingColor) {
		cfg.StartingColor = "pink"
	}
	return &Scheduler{
		synth:           synth,
		queue:           queue,
		logger:          logger.Named("rotation"),
		cfg:             cfg,
		currentColor:    cfg.StartingColor,
		autoRotate:      true,
		colorOverrideCh: make(chan string, 1),
		pollInterval:    time.Second,
	}
}

// SetListenerCountFunc installs the idle check. With no listeners the
// scheduler stops rendering.
func (s *Scheduler) SetListenerCountFunc(fn func() int) {
	s.mu.Lock()
	s.listenerCountFn = fn
	s.mu.Unlock()
}

// Status returns the current rotation state.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := time.Until(s.dwellEnd).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return SchedulerStatus{
		Color:          s.currentColor,
		Description:    Describe(s.currentColor),
		AutoRotate:     s.autoRotate,
		Idle:           s.idle,
		DwellRemaining: remaining,
		QueueSize:      s.queue.QueueSize(),
		ClipDuration:   s.cfg.ClipDuration,
	}
}

// ErrUnknownColor is returned by SetColor for names outside ColorGraph.
var ErrUnknownColor = errors.New("unknown noise color")

// SetColor manually overrides the current color. The latest override wins.
func (s *Scheduler) SetColor(color string) error {
	if !IsValidColor(color) {
		return fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}
	select {
	case <-s.colorOverrideCh:
	default:
	}
	select {
	case s.colorOverrideCh <- color:
	default:
	}
	return nil
}

// Skip skips the current clip.
func (s *Scheduler) Skip() {
	s.queue.Skip()
}

// SetAutoRotate enables or disables automatic color transitions.
func (s *Scheduler) SetAutoRotate(enabled bool) {
	s.mu.Lock()
	s.autoRotate = enabled
	if enabled {
		s.resetDwell()
	}
	s.mu.Unlock()
}

// SetClipDuration updates the length of future clips (seconds).
func (s *Scheduler) SetClipDuration(seconds int) {
	s.mu.Lock()
	s.cfg.ClipDuration = seconds
	s.mu.Unlock()
	s.logger.Info("clip duration changed", zap.Int("seconds", seconds))
}

// ClipDuration returns the current clip duration setting.
func (s *Scheduler) ClipDuration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ClipDuration
}

// Run starts the rotation loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("clip directory: %w", err)
	}

	s.mu.Lock()
	s.resetDwell()
	s.mu.Unlock()

	s.logger.Info("rotation started", zap.String("color", s.currentColor))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		select {
		case color := <-s.colorOverrideCh:
			s.mu.Lock()
			s.currentColor = color
			s.resetDwell()
			s.mu.Unlock()
			s.logger.Info("color set manually", zap.String("color", color))
		default:
		}

		s.mu.RLock()
		autoRotate := s.autoRotate
		expired := time.Now().After(s.dwellEnd)
		s.mu.RUnlock()

		if autoRotate && expired {
			s.transitionColor()
		}

		if !s.idleCheck() && s.queue.QueueSize() < s.cfg.BufferAhead {
			if err := s.renderClip(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("clip render failed", zap.Error(err))
				if !s.wait(ctx, 5*time.Second) {
					return nil
				}
			}
			continue
		}
		if !s.wait(ctx, s.pollInterval) {
			return nil
		}
	}
}

// wait sleeps for d, returning false if ctx ends first.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// idleCheck reports whether nobody is listening and records it for Status.
func (s *Scheduler) idleCheck() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idle := s.listenerCountFn != nil && s.listenerCountFn() == 0
	if idle != s.idle {
		s.logger.Info("listener state changed", zap.Bool("idle", idle))
	}
	s.idle = idle
	return idle
}

func (s *Scheduler) renderClip(ctx context.Context) error {
	s.mu.RLock()
	color := s.currentColor
	clipDur := s.cfg.ClipDuration
	s.mu.RUnlock()

	node := ColorGraph[color]
	clip, err := s.synth.Synthesize(noise.Request{
		Type:       node.Type,
		Duration:   clipDur,
		SampleRate: audio.SampleRate,
	})
	if err != nil {
		metrics.ClipErrorsTotal.WithLabelValues("synthesize").Inc()
		return err
	}
	metrics.SynthesisDuration.WithLabelValues(color).Observe(float64(clip.Elapsed.Milliseconds()))

	id := uuid.NewString()
	path := filepath.Join(s.cfg.OutputDir, id+".wav")
	if err := soundfile.WriteFile(path, soundfile.Props{SampleRate: audio.SampleRate, Format: soundfile.FormatWAV}, clip.Samples); err != nil {
		metrics.ClipErrorsTotal.WithLabelValues("write").Inc()
		return err
	}
	metrics.ClipsGeneratedTotal.WithLabelValues(color).Inc()

	name := ClipName(color, id)
	s.logger.Info("clip ready",
		zap.String("name", name),
		zap.String("clip_id", id),
		zap.String("color", color),
		zap.Duration("elapsed", clip.Elapsed))

	if err := s.queue.Enqueue(ctx, audio.Clip{
		Info:    audio.ClipInfo{ID: id, Color: color, Path: path, Name: name},
		Samples: clip.Samples,
	}); err != nil {
		os.Remove(path)
		return err
	}
	metrics.QueuedClips.Set(float64(s.queue.QueueSize()))
	s.prune(path)
	return nil
}

// prune keeps the WAV copies of clips that may still be queued or playing
// and removes older ones.
func (s *Scheduler) prune(path string) {
	keep := s.cfg.BufferAhead + 2
	s.written = append(s.written, path)
	for len(s.written) > keep {
		old := s.written[0]
		s.written = s.written[1:]
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("clip cleanup failed", zap.String("path", old), zap.Error(err))
		}
	}
}

func (s *Scheduler) transitionColor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := ColorGraph[s.currentColor]
	if !ok || len(c.Adjacent) == 0 {
		s.resetDwell()
		return
	}

	next := c.Adjacent[rand.IntN(len(c.Adjacent))]
	s.logger.Info("color transition", zap.String("from", s.currentColor), zap.String("to", next))
	s.currentColor = next
	s.resetDwell()
}

// resetDwell sets a new random dwell timer. Must be called with mu held.
func (s *Scheduler) resetDwell() {
	spread := s.cfg.DwellMax - s.cfg.DwellMin
	if spread <= 0 {
		spread = 1
	}
	dwell := s.cfg.DwellMin + rand.IntN(spread)
	s.dwellEnd = time.Now().Add(time.Duration(dwell) * time.Second)
}
