package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/noisemachine/internal/audio"
	"github.com/satindergrewal/noisemachine/internal/rotation"
	"github.com/satindergrewal/noisemachine/internal/web"
)

// Crossfade bounds accepted by POST /api/config, in seconds.
const (
	minCrossfade = 0
	maxCrossfade = 10
)

// Rotation is the scheduler surface the handlers drive.
type Rotation interface {
	Status() rotation.SchedulerStatus
	SetColor(color string) error
	Skip()
	SetAutoRotate(enabled bool)
	SetClipDuration(seconds int)
	ClipDuration() int
}

// Player is the playback surface the handlers read and tune.
type Player interface {
	Status() (clip audio.ClipInfo, position, duration time.Duration)
	SetCrossfade(d time.Duration)
	CrossfadeDuration() time.Duration
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Rotation        Rotation
	Player          Player
	Offer           http.Handler // POST /offer, WebRTC negotiation
	Stream          http.Handler // GET /stream, Ogg/Opus
	HTTPListeners   func() int
	WebRTCListeners func() int
	MaxClipDuration int
	Logger          *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func count(fn func() int) int {
	if fn == nil {
		return 0
	}
	return fn()
}

// Index serves the embedded preview page.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(web.IndexHTML)
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Status handles GET /api/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	rs := h.Rotation.Status()
	clip, pos, dur := h.Player.Status()

	name := clip.Name
	if name == "" {
		name = rotation.ClipName(clip.Color, clip.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"color":            rs.Color,
		"description":      rs.Description,
		"auto_rotate":      rs.AutoRotate,
		"idle":             rs.Idle,
		"dwell_remaining":  rs.DwellRemaining,
		"queue_size":       rs.QueueSize,
		"clip_id":          clip.ID,
		"clip_name":        name,
		"clip_color":       clip.Color,
		"position":         pos.Seconds(),
		"duration":         dur.Seconds(),
		"http_listeners":   count(h.HTTPListeners),
		"webrtc_listeners": count(h.WebRTCListeners),
		"config": map[string]any{
			"clip_duration": h.Rotation.ClipDuration(),
			"crossfade":     h.Player.CrossfadeDuration().Seconds(),
			"sample_rate":   audio.SampleRate,
			"colors":        rotation.ColorNames(),
		},
	})
}

// SetColor handles POST /api/color.
func (h *Handlers) SetColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Color == "" {
		writeError(w, http.StatusBadRequest, "invalid color")
		return
	}
	if err := h.Rotation.SetColor(req.Color); err != nil {
		writeError(w, http.StatusBadRequest, "unknown color")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "color": req.Color})
}

// Skip handles POST /api/skip.
func (h *Handlers) Skip(w http.ResponseWriter, r *http.Request) {
	h.Rotation.Skip()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// SetRotation handles POST /api/rotation.
func (h *Handlers) SetRotation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	h.Rotation.SetAutoRotate(*req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "auto_rotate": *req.Enabled})
}

// SetConfig handles POST /api/config. Both fields are optional; nothing is
// applied unless every supplied field is valid.
func (h *Handlers) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClipDuration *int     `json:"clip_duration"`
		Crossfade    *float64 `json:"crossfade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.ClipDuration != nil {
		if v := *req.ClipDuration; v < 1 || v > h.MaxClipDuration {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("clip_duration must be 1-%d", h.MaxClipDuration))
			return
		}
	}
	if req.Crossfade != nil {
		if v := *req.Crossfade; v < minCrossfade || v > maxCrossfade {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("crossfade must be %d-%d", minCrossfade, maxCrossfade))
			return
		}
	}

	if req.ClipDuration != nil {
		h.Rotation.SetClipDuration(*req.ClipDuration)
	}
	if req.Crossfade != nil {
		h.Player.SetCrossfade(time.Duration(*req.Crossfade * float64(time.Second)))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"clip_duration": h.Rotation.ClipDuration(),
		"crossfade":     h.Player.CrossfadeDuration().Seconds(),
	})
}

// Save handles GET /api/save, downloading the playing clip as WAV.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	clip, _, _ := h.Player.Status()
	if clip.Path == "" {
		writeError(w, http.StatusNotFound, "no clip playing")
		return
	}
	name := clip.Name
	if name == "" {
		name = rotation.ClipName(clip.Color, clip.ID)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.wav"`, name))
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, clip.Path)
}
