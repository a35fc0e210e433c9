package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 1
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total samples per frame
)

// ClipInfo identifies a rendered noise clip for the pipeline.
type ClipInfo struct {
	ID    string
	Color string
	Path  string // WAV copy on disk, served by /api/save
	Name  string
}

// Clip is a rendered clip held in memory, samples in [-1, 1].
type Clip struct {
	Info    ClipInfo
	Samples []float32
}
