package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hwc-composer/internal/composer"
	"hwc-composer/internal/hal"
	"hwc-composer/internal/platform/config"
	"hwc-composer/internal/platform/logger"
	"hwc-composer/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.New()

	modes := hal.NewModeTable(map[int]composer.ModeInfo{
		composer.DisplayPrimary:  {HDisplay: 1920, VDisplay: 1080},
		composer.DisplayExternal: {HDisplay: 1920, VDisplay: 1080},
		composer.DisplayVirtual:  {HDisplay: 1280, VDisplay: 720},
	})
	buffers := hal.NewBufferStore()
	vsync := hal.NewVsyncManager(log)
	device := hal.NewPostDevice(64)
	planes := hal.NewDefaultPlanePool(cfg.Displays)
	scene := hal.NewScene(buffers, modes, cfg.Displays)

	analyzer := composer.NewAnalyzer(composer.AnalyzerDeps{
		Buffers:                       buffers,
		Formats:                       composer.PlaneCapabilities{},
		Modes:                         modes,
		Coordinator:                   vsync,
		Properties:                    config.NewProperties(cfg.PropertiesFile),
		SuppressOverlayWhilePreparing: cfg.SuppressOverlayWhilePreparing,
	}, log, met)
	commit := composer.NewCommitContext(&hal.Registry{Device: device}, cfg.MaxLayers, log, met)
	comp := composer.NewCompositor(analyzer, commit, composer.NewPlaneAssigner(buffers, log), planes, log, met)

	if err := comp.Initialize(); err != nil {
		log.Error("compositor init failed", "error", err)
		os.Exit(1)
	}
	defer comp.Deinitialize()

	h := composer.NewHandler(comp, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() {
			st := analyzer.State()
			met.SetAnalyzerState(st.VideoPlaying, analyzer.CheckVideoExtendedMode(), st.BlankDevice)
		}).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("hwcd starting",
		"port", cfg.Port,
		"displays", cfg.Displays,
		"refresh_hz", cfg.RefreshHz,
		"max_layers", commit.Capacity(),
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runComposition(ctx, log, comp, scene, vsync, time.Second/time.Duration(cfg.RefreshHz))

	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("hwcd stopped")
}

// runComposition composes once per refresh interval and immediately on
// invalidate, until ctx is done.
func runComposition(ctx context.Context, log *slog.Logger, comp *composer.Compositor, scene *hal.Scene, vsync *hal.VsyncManager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-vsync.Invalidations():
		}
		displays := scene.Build(comp.Analyzer().IsVideoPlaying())
		if err := comp.Compose(displays); err != nil {
			log.Debug("frame dropped", "error", err)
		}
	}
}
