package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"go.uber.org/zap"

	"github.com/satindergrewal/noisemachine/internal/audio"
)

// DefaultConnectTimeout bounds how long an answered peer may take to
// reach the connected state before it is hung up.
const DefaultConnectTimeout = 30 * time.Second

// WebRTCHandler serves WebRTC SDP negotiation for low-latency Opus streaming.
type WebRTCHandler struct {
	broadcaster    *Broadcaster
	bitrate        int
	connectTimeout time.Duration
	logger         *zap.Logger

	mu    sync.Mutex
	peers []*peer
}

// peer is one negotiated connection; closed is closed on hangup.
type peer struct {
	pc     *webrtc.PeerConnection
	closed chan struct{}
	once   sync.Once
	timer  *time.Timer
}

// NewWebRTCHandler creates a WebRTC stream handler encoding at bitrate bits/s.
func NewWebRTCHandler(b *Broadcaster, bitrate int, logger *zap.Logger) *WebRTCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebRTCHandler{
		broadcaster:    b,
		bitrate:        bitrate,
		connectTimeout: DefaultConnectTimeout,
		logger:         logger.Named("webrtc"),
	}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil || offer.SDP == "" {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}
	p := &peer{pc: pc, closed: make(chan struct{})}

	// Registered before negotiation so no state change is missed.
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			h.hangup(p, s.String())
		}
	})

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"noisemachine",
	)
	if err != nil {
		h.hangup(p, "track")
		http.Error(w, "create audio track failed", http.StatusInternalServerError)
		return
	}

	if _, err := pc.AddTrack(audioTrack); err != nil {
		h.hangup(p, "track")
		http.Error(w, "add track failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetRemoteDescription(offer); err != nil {
		h.hangup(p, "offer")
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		h.hangup(p, "answer")
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		h.hangup(p, "answer")
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	select {
	case <-gatherComplete:
	case <-r.Context().Done():
		h.hangup(p, "client gone")
		return
	}

	if !h.addPeer(p) {
		http.Error(w, "peer closed during negotiation", http.StatusServiceUnavailable)
		return
	}
	h.watchConnect(p, h.connectTimeout)
	h.logger.Info("peer connected", zap.Int("peers", h.PeerCount()))

	go h.streamToPeer(audioTrack, p.closed)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

// addPeer tracks p unless it already hung up.
func (h *WebRTCHandler) addPeer(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-p.closed:
		return false
	default:
	}
	h.peers = append(h.peers, p)
	return true
}

// watchConnect hangs up p if it has not connected within timeout.
func (h *WebRTCHandler) watchConnect(p *peer, timeout time.Duration) {
	t := time.AfterFunc(timeout, func() {
		if p.pc.ConnectionState() != webrtc.PeerConnectionStateConnected {
			h.hangup(p, "connect timeout")
		}
	})
	h.mu.Lock()
	p.timer = t
	h.mu.Unlock()
}

// hangup closes p, stops its stream and forgets it. Only the first call
// acts.
func (h *WebRTCHandler) hangup(p *peer, reason string) {
	first := false
	p.once.Do(func() {
		first = true
		close(p.closed)
	})
	if !first {
		return
	}

	h.mu.Lock()
	for i, q := range h.peers {
		if q == p {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			break
		}
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	h.mu.Unlock()

	p.pc.Close()
	h.logger.Info("peer disconnected", zap.String("reason", reason), zap.Int("peers", h.PeerCount()))
}

func (h *WebRTCHandler) streamToPeer(track *webrtc.TrackLocalStaticSample, closed <-chan struct{}) {
	enc, err := newOpusEncoder(h.bitrate)
	if err != nil {
		h.logger.Error("opus encoder unavailable", zap.Error(err))
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	pump(listener, closed, enc, func(packet []byte) error {
		return track.WriteSample(media.Sample{Data: packet, Duration: audio.FrameDuration})
	}, h.logger)
}

// Close hangs up every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := append([]*peer(nil), h.peers...)
	h.mu.Unlock()
	for _, p := range peers {
		h.hangup(p, "shutdown")
	}
}
