package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/satindergrewal/noisemachine/internal/metrics"
)

// DefaultListenerDepth buffers about three seconds of 20ms frames.
const DefaultListenerDepth = 150

// Listener is one subscriber's view of the frame stream.
type Listener struct {
	id      uint64
	frames  chan []float32
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Frames delivers frames in broadcast order.
func (l *Listener) Frames() <-chan []float32 { return l.frames }

// Done is closed once the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Dropped counts frames this listener missed because its buffer was full.
func (l *Listener) Dropped() uint64 { return l.dropped.Load() }

// offer queues frame without blocking and reports whether it fit.
func (l *Listener) offer(frame []float32) bool {
	select {
	case l.frames <- frame:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Broadcaster copies every frame from a single source to all listeners.
// A listener that falls behind misses frames; the source never waits.
type Broadcaster struct {
	depth int

	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Listener
}

// NewBroadcaster creates a broadcaster whose listeners buffer depth frames.
// A depth below 1 selects DefaultListenerDepth.
func NewBroadcaster(depth int) *Broadcaster {
	if depth < 1 {
		depth = DefaultListenerDepth
	}
	return &Broadcaster{depth: depth, subs: make(map[uint64]*Listener)}
}

// Subscribe registers a listener starting at the next broadcast frame.
func (b *Broadcaster) Subscribe() *Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	l := &Listener{
		id:     b.nextID,
		frames: make(chan []float32, b.depth),
		done:   make(chan struct{}),
	}
	b.subs[l.id] = l
	metrics.Listeners.Set(float64(len(b.subs)))
	return l
}

// Unsubscribe detaches l and closes its Done channel. Repeated calls are
// no-ops.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	l.once.Do(func() {
		b.mu.Lock()
		delete(b.subs, l.id)
		metrics.Listeners.Set(float64(len(b.subs)))
		b.mu.Unlock()
		close(l.done)
	})
}

// ListenerCount returns the number of subscribed listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// publish offers frame to every listener and returns how many missed it.
func (b *Broadcaster) publish(frame []float32) (missed int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range b.subs {
		if !l.offer(frame) {
			missed++
		}
	}
	return missed
}

// Run publishes frames from source until it closes or ctx ends.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			missed := b.publish(frame)
			metrics.FramesBroadcastTotal.Inc()
			if missed > 0 {
				metrics.FramesDroppedTotal.Add(float64(missed))
			}
		}
	}
}
