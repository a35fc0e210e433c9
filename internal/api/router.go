package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satindergrewal/noisemachine/internal/metrics"
)

// RouterOptions tunes the control endpoint rate limit.
type RouterOptions struct {
	RequestsPerSecond float64
	Burst             int
}

// NewRouter wires every preview route onto a chi router.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", h.Index)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	if h.Stream != nil {
		r.Get("/stream", h.Stream.ServeHTTP)
	}

	limited := r.With(rateLimit(rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)))
	if h.Offer != nil {
		limited.Post("/offer", h.Offer.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/save", h.Save)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)))
			r.Post("/color", h.SetColor)
			r.Post("/skip", h.Skip)
			r.Post("/rotation", h.SetRotation)
			r.Post("/config", h.SetConfig)
		})
	})

	return r
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())))
		})
	}
}
