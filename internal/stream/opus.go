package stream

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/noisemachine/internal/audio"
	"github.com/satindergrewal/noisemachine/internal/metrics"
)

// maxOpusPacket bounds one encoded 20ms frame.
const maxOpusPacket = 4000

// frameEncoder turns 20ms mono float frames into Opus packets.
type frameEncoder interface {
	EncodeFloat32(pcm []float32, data []byte) (int, error)
}

func newOpusEncoder(bitrate int) (*opus.Encoder, error) {
	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	if bitrate > 0 {
		if err := enc.SetBitrate(bitrate); err != nil {
			return nil, fmt.Errorf("opus bitrate %d: %w", bitrate, err)
		}
	}
	return enc, nil
}

// pump encodes frames from l and hands each packet to write until the
// listener is unsubscribed, done closes, or write fails. Encode failures
// skip the frame.
func pump(l *Listener, done <-chan struct{}, enc frameEncoder, write func(packet []byte) error, logger *zap.Logger) {
	buf := make([]byte, maxOpusPacket)
	for {
		select {
		case <-done:
			return
		case <-l.Done():
			return
		case frame, ok := <-l.Frames():
			if !ok {
				return
			}
			n, err := enc.EncodeFloat32(frame, buf)
			if err != nil {
				metrics.EncodeErrorsTotal.Inc()
				logger.Warn("opus encode failed", zap.Error(err))
				continue
			}
			if err := write(buf[:n]); err != nil {
				logger.Debug("listener write failed", zap.Error(err))
				return
			}
		}
	}
}
