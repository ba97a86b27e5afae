package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GSA9429/Satellite-vectors/internal/config"
	"github.com/GSA9429/Satellite-vectors/internal/coordinator"
	"github.com/GSA9429/Satellite-vectors/internal/health"
	"github.com/GSA9429/Satellite-vectors/internal/metrics"
	"github.com/GSA9429/Satellite-vectors/internal/sink"
	"github.com/GSA9429/Satellite-vectors/internal/timegrid"
	"github.com/GSA9429/Satellite-vectors/internal/tle"
)

const (
	exitOK = iota
	exitFailure
	exitSinkFailure
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $"+config.PathEnvVar+")")
	flag.Parse()
	os.Exit(run(*configPath))
}

func run(configFlag string) int {
	// Captured once; every unit derives its instants from this.
	now := time.Now().UTC()

	cfg, err := config.Load(config.Path(configFlag))
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		return exitFailure
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	start, err := cfg.Run.StartTime(now)
	if err != nil {
		logger.Error("invalid start time", "error", err)
		return exitFailure
	}
	grid, err := timegrid.FromHorizon(start, cfg.Run.Horizon, cfg.Run.Step)
	if err != nil {
		logger.Error("invalid time grid", "error", err)
		return exitFailure
	}
	roi, err := cfg.Region.Region()
	if err != nil {
		logger.Error("invalid region", "error", err)
		return exitFailure
	}
	policy, err := cfg.Run.RemainderPolicy()
	if err != nil {
		logger.Error("invalid remainder policy", "error", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readiness := health.NewReadiness()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, readiness, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	coord, err := coordinator.New(coordinator.Config{
		Workers:       cfg.Run.Workers,
		Remainder:     policy,
		Grid:          grid,
		Region:        roi,
		GatherTimeout: cfg.Run.GatherTimeout,
	}, logger, coordinator.WithStageHook(func(s coordinator.Stage) {
		readiness.SetStage(string(s), s != coordinator.StageLoad && s != coordinator.StageBroadcast)
	}))
	if err != nil {
		logger.Error("invalid run configuration", "error", err)
		return exitFailure
	}

	src := tle.Source{
		Path:     cfg.Catalog.Path,
		URL:      cfg.Catalog.URL,
		CacheDir: cfg.Catalog.CacheDir,
		MaxFiles: cfg.Catalog.MaxFiles,
	}
	ds, err := coord.Run(ctx, func(ctx context.Context) (*tle.Catalog, error) {
		return tle.Load(ctx, src, logger)
	})
	if err != nil {
		readiness.SetStage("failed", false)
		return exitFailure
	}

	if err := sink.WriteFile(cfg.Output.Path, ds.Rows); err != nil {
		readiness.SetStage("failed", false)
		logger.Error("writing results failed", "error", err, "run_id", ds.RunID)
		return exitSinkFailure
	}
	readiness.SetStage("done", true)
	logger.Info("results written", "path", cfg.Output.Path, "rows", len(ds.Rows), "run_id", ds.RunID)
	fmt.Printf("Data saved to %s\n", cfg.Output.Path)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics textfile export failed", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return exitOK
}

func serveMetrics(addr string, readiness *health.Readiness, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", readiness.Readyz)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting metrics server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server listen error", "error", err)
		}
	}()
	return srv
}
