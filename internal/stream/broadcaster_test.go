package stream

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/satindergrewal/noisemachine/internal/audio"
	"github.com/satindergrewal/noisemachine/internal/metrics"
	"github.com/satindergrewal/noisemachine/internal/noise"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// noiseFrames renders one second of the given color and slices it into
// 20ms playback frames.
func noiseFrames(t *testing.T, typ noise.Type) [][]float32 {
	t.Helper()
	syn := noise.NewSynthesizer(noise.NewSource(17), noise.DefaultLimits(), nil)
	clip, err := syn.Synthesize(noise.Request{Type: typ, Duration: 1, SampleRate: audio.SampleRate})
	require.NoError(t, err)

	var frames [][]float32
	for off := 0; off+audio.FrameSamples <= len(clip.Samples); off += audio.FrameSamples {
		frames = append(frames, clip.Samples[off:off+audio.FrameSamples])
	}
	require.Len(t, frames, 50)
	return frames
}

// runUntilDrained feeds frames through b.Run and waits for Run to return.
func runUntilDrained(t *testing.T, b *Broadcaster, frames [][]float32) {
	t.Helper()
	source := make(chan []float32)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		b.Run(context.Background(), source)
	}()
	for _, f := range frames {
		source <- f
	}
	close(source)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster did not stop after its source closed")
	}
}

func drain(l *Listener) [][]float32 {
	var got [][]float32
	for {
		select {
		case f := <-l.Frames():
			got = append(got, f)
		default:
			return got
		}
	}
}

func TestBroadcasterFansOutNoiseInOrder(t *testing.T) {
	for _, typ := range noise.Types() {
		t.Run(typ.String(), func(t *testing.T) {
			frames := noiseFrames(t, typ)
			b := NewBroadcaster(len(frames))
			ls := []*Listener{b.Subscribe(), b.Subscribe(), b.Subscribe()}

			sentBefore := testutil.ToFloat64(metrics.FramesBroadcastTotal)
			runUntilDrained(t, b, frames)
			assert.Equal(t, float64(len(frames)), testutil.ToFloat64(metrics.FramesBroadcastTotal)-sentBefore)

			for i, l := range ls {
				got := drain(l)
				require.Equal(t, frames, got, "listener %d", i)
				assert.Zero(t, l.Dropped(), "listener %d", i)
				for _, f := range got {
					for _, v := range f {
						require.True(t, v >= -1 && v <= 1, "sample %v outside [-1, 1]", v)
					}
				}
				b.Unsubscribe(l)
			}
		})
	}
}

func TestBroadcasterStalledListenerMissesFrames(t *testing.T) {
	frames := noiseFrames(t, noise.Pink)
	b := NewBroadcaster(4)
	stalled := b.Subscribe()

	droppedBefore := testutil.ToFloat64(metrics.FramesDroppedTotal)
	runUntilDrained(t, b, frames[:10])

	got := drain(stalled)
	assert.Equal(t, frames[:4], got, "the oldest frames stay queued")
	assert.Equal(t, uint64(6), stalled.Dropped())
	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.FramesDroppedTotal)-droppedBefore)

	// Space frees up once the listener reads again.
	assert.Zero(t, b.publish(frames[10]))
	assert.Equal(t, [][]float32{frames[10]}, drain(stalled))
	b.Unsubscribe(stalled)
}

func TestBroadcasterPublishCountsEachMiss(t *testing.T) {
	frames := noiseFrames(t, noise.White)
	b := NewBroadcaster(1)
	full := b.Subscribe()
	empty := b.Subscribe()
	defer b.Unsubscribe(full)
	defer b.Unsubscribe(empty)

	assert.Zero(t, b.publish(frames[0]))
	<-empty.Frames()
	assert.Equal(t, 1, b.publish(frames[1]), "only the full listener misses")
	assert.Equal(t, uint64(1), full.Dropped())
	assert.Zero(t, empty.Dropped())
}

func TestBroadcasterListenerGauge(t *testing.T) {
	b := NewBroadcaster(0)
	assert.Zero(t, b.ListenerCount())

	a := b.Subscribe()
	c := b.Subscribe()
	assert.Equal(t, 2, b.ListenerCount())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Listeners))
	assert.Equal(t, DefaultListenerDepth, cap(a.frames))

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	assert.Equal(t, 1, b.ListenerCount(), "second unsubscribe is a no-op")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Listeners))

	select {
	case <-a.Done():
	default:
		t.Fatal("Done not closed after unsubscribe")
	}
	select {
	case <-c.Done():
		t.Fatal("Done closed for a listener still subscribed")
	default:
	}

	b.Unsubscribe(c)
	assert.Zero(t, testutil.ToFloat64(metrics.Listeners))
}

func TestBroadcasterLateListenerStartsAtNextFrame(t *testing.T) {
	frames := noiseFrames(t, noise.Red)
	b := NewBroadcaster(len(frames))
	early := b.Subscribe()
	b.publish(frames[0])
	late := b.Subscribe()
	b.publish(frames[1])

	assert.Equal(t, frames[:2], drain(early))
	assert.Equal(t, frames[1:2], drain(late))
	b.Unsubscribe(early)
	b.Unsubscribe(late)
}

func TestBroadcasterRunStopsOnCancel(t *testing.T) {
	b := NewBroadcaster(0)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		b.Run(ctx, make(chan []float32))
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster did not stop after cancel")
	}
}
