package stream

import (
	"net/http"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"go.uber.org/zap"

	"github.com/satindergrewal/noisemachine/internal/audio"
)

// HTTPHandler serves a live Ogg/Opus stream over chunked HTTP.
type HTTPHandler struct {
	broadcaster *Broadcaster
	bitrate     int
	logger      *zap.Logger
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(b *Broadcaster, bitrate int, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{broadcaster: b, bitrate: bitrate, logger: logger.Named("http-stream")}
}

// flushWriter pushes every Ogg page to the client as soon as it is written.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil {
		fw.f.Flush()
	}
	return n, err
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	enc, err := newOpusEncoder(h.bitrate)
	if err != nil {
		h.logger.Error("opus encoder unavailable", zap.Error(err))
		http.Error(w, "encoder unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/ogg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("ICY-Name", "noisemachine")

	ogg, err := oggwriter.NewWith(flushWriter{w: w, f: flusher}, audio.SampleRate, audio.Channels)
	if err != nil {
		h.logger.Warn("ogg header write failed", zap.Error(err))
		return
	}
	defer ogg.Close()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	h.logger.Info("listener connected", zap.Int("listeners", h.broadcaster.ListenerCount()))
	defer h.logger.Info("listener disconnected")

	var seq uint16
	var ts uint32
	pump(listener, r.Context().Done(), enc, func(packet []byte) error {
		err := ogg.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{SequenceNumber: seq, Timestamp: ts},
			Payload: packet,
		})
		seq++
		ts += audio.FrameSize
		return err
	}, h.logger)
}
