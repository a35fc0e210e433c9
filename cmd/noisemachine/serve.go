package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/noisemachine/internal/api"
	"github.com/satindergrewal/noisemachine/internal/audio"
	"github.com/satindergrewal/noisemachine/internal/noise"
	"github.com/satindergrewal/noisemachine/internal/rotation"
	"github.com/satindergrewal/noisemachine/internal/stream"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the noise radio preview server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Serve.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides serve.port)")
	return cmd
}

// serve runs the pipeline, broadcaster, scheduler and HTTP server until ctx
// ends or one of them fails.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg.Serve
	logger := a.logger

	pipeline := audio.NewPipeline(cfg.Crossfade, logger)
	broadcaster := stream.NewBroadcaster(stream.DefaultListenerDepth)
	webrtcHandler := stream.NewWebRTCHandler(broadcaster, cfg.OpusBitrate, logger)
	httpStream := stream.NewHTTPHandler(broadcaster, cfg.OpusBitrate, logger)

	lim := noise.Limits{MaxDuration: a.cfg.Synth.MaxDuration, MaxSampleRate: a.cfg.Synth.MaxSampleRate}
	synth := noise.NewSynthesizer(noise.NewSource(a.cfg.Synth.Seed), lim, logger)
	sched := rotation.NewScheduler(synth, pipeline, rotation.SchedulerConfig{
		StartingColor: cfg.StartingColor,
		ClipDuration:  cfg.ClipDuration,
		BufferAhead:   cfg.BufferAhead,
		DwellMin:      cfg.DwellMin,
		DwellMax:      cfg.DwellMax,
		OutputDir:     cfg.OutputDir,
	}, logger)
	sched.SetListenerCountFunc(broadcaster.ListenerCount)

	router := api.NewRouter(&api.Handlers{
		Rotation:        sched,
		Player:          pipeline,
		Offer:           webrtcHandler,
		Stream:          httpStream,
		HTTPListeners:   func() int { return max(0, broadcaster.ListenerCount()-webrtcHandler.PeerCount()) },
		WebRTCListeners: webrtcHandler.PeerCount,
		MaxClipDuration: a.cfg.Synth.MaxDuration,
		Logger:          logger,
	}, api.RouterOptions{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})

	g, gctx := errgroup.WithContext(ctx)

	// Live streams hold their request open; tie them to gctx so Shutdown
	// does not wait on them.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		pipeline.Run(gctx)
		return nil
	})
	g.Go(func() error {
		broadcaster.Run(gctx, pipeline.Frames())
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("noisemachine live", zap.String("addr", server.Addr), zap.String("color", cfg.StartingColor))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		webrtcHandler.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
