package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	Listeners = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "noisemachine_listeners",
		Help: "Number of connected preview listeners",
	})
	QueuedClips = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "noisemachine_queued_clips",
		Help: "Rendered clips waiting in the playback queue",
	})
)

// Counters
var (
	ClipsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noisemachine_clips_generated_total",
		Help: "Total clips synthesized by noise color",
	}, []string{"color"})
	ClipErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noisemachine_clip_errors_total",
		Help: "Clip synthesis or write failures by stage",
	}, []string{"stage"})
	FramesBroadcastTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noisemachine_frames_broadcast_total",
		Help: "Total 20ms frames fanned out to listeners",
	})
	FramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noisemachine_frames_dropped_total",
		Help: "Frames dropped for listeners that fell behind",
	})
	EncodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noisemachine_opus_encode_errors_total",
		Help: "Total Opus encode failures",
	})
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noisemachine_rate_limited_total",
		Help: "Control requests rejected by the rate limiter",
	})
)

// Histograms
var (
	SynthesisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "noisemachine_synthesis_duration_ms",
		Help:    "Clip synthesis duration in milliseconds by color",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"color"})
)
