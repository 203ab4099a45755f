// signald serves late-match football signals over HTTP and WebSocket.
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

	"github.com/gin-gonic/gin"

	"github.com/phenomenon0/latesignal/pkg/api"
	"github.com/phenomenon0/latesignal/pkg/config"
	"github.com/phenomenon0/latesignal/pkg/football/standings"
	"github.com/phenomenon0/latesignal/pkg/logging"
	"github.com/phenomenon0/latesignal/pkg/metrics"
	"github.com/phenomenon0/latesignal/pkg/streaming"
	"github.com/phenomenon0/latesignal/pkg/tracker"
)

var version = "dev"

var (
	// Flags override the config file.
	configPath    = flag.String("config", "", "Path to YAML config file")
	httpAddr      = flag.String("http", "", "HTTP listen address (overrides server.addr)")
	standingsFile = flag.String("standings", "", "Standings YAML file (overrides standings.file)")
	logLevel      = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logJSON       = flag.Bool("log-json", false, "Log as JSON")
	rateLimit     = flag.Float64("rate-limit", -1, "Requests per second per client IP, 0 disables")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "signald: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stdout, logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "signald",
	})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("signald stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *httpAddr != "" {
		cfg.Server.Addr = *httpAddr
	}
	if *standingsFile != "" {
		cfg.Standings.File = *standingsFile
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logJSON {
		cfg.Log.Format = "json"
	}
	if *rateLimit >= 0 {
		cfg.API.RateLimit = *rateLimit
	}
	return cfg, cfg.Validate()
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sm := metrics.New()
	store := tracker.NewStore()

	var table *standings.Table
	if cfg.Standings.File != "" {
		t, err := standings.LoadFile(cfg.Standings.File, cfg.Standings.StrongThreshold)
		if err != nil {
			return fmt.Errorf("standings: %w", err)
		}
		table = t
		logger.Info("standings loaded", "file", cfg.Standings.File, "teams", table.TeamCount(), "threshold", table.Threshold())
	} else {
		logger.Warn("no standings file, strength lookup disabled")
	}

	hub := streaming.NewHub(
		streaming.WithLogger(logger.With("component", "stream")),
		streaming.WithObserver(sm),
		streaming.WithHeartbeat(cfg.Stream.Heartbeat),
		streaming.WithAllowedOrigins(cfg.API.AllowedOrigins),
	)
	go hub.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	srv := api.New(api.Deps{
		Standings: table,
		Store:     store,
		Calls:     tracker.NewCounter(cfg.API.DailyCallLimit),
		Metrics:   sm,
		Hub:       hub,
		Logger:    logger.With("component", "api"),
	}, api.Options{
		AllowedOrigins: cfg.API.AllowedOrigins,
		RateLimit:      cfg.API.RateLimit,
		RateBurst:      cfg.API.RateBurst,
		MaxBodyBytes:   cfg.API.MaxBodyBytes,
		Version:        version,
	})

	if cfg.Tracker.PruneInterval > 0 && cfg.Tracker.RetainFor > 0 {
		go housekeeping(ctx, cfg.Tracker, store, srv, sm, logger)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr, "version", version)
		logger.Info("websocket streaming available", "url", fmt.Sprintf("ws://%s/ws", cfg.Server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("goodbye", "fixtures_tracked", store.FixtureCount())
	return nil
}

// housekeeping prunes finished fixtures and idle rate-limit buckets.
func housekeeping(ctx context.Context, cfg config.TrackerConfig, store *tracker.Store, srv *api.Server, sm *metrics.SignalMetrics, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := store.Prune(cfg.RetainFor)
			swept := srv.SweepLimiters()
			sm.UpdateTrackedFixtures(store.FixtureCount())
			if pruned > 0 || swept > 0 {
				logger.Debug("housekeeping", "fixtures_pruned", pruned, "limiters_swept", swept)
			}
		}
	}
}
