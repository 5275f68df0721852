package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"fakeartist/internal/app"
	"fakeartist/internal/clocksync"
	"fakeartist/internal/config"
	"fakeartist/internal/notify"
	"fakeartist/internal/roles"
	"fakeartist/internal/store"
	httpTransport "fakeartist/internal/transport/http"
	"fakeartist/internal/words"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting fake artist server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Word banks
	var catalog *words.Catalog
	if cfg.Game.WordBankDir != "" {
		catalog, err = words.LoadDir(cfg.Game.WordBankDir, cfg.Game.BaseLocale)
	} else {
		catalog, err = words.LoadEmbedded(cfg.Game.BaseLocale)
	}
	if err != nil {
		logger.Error("failed to load word banks", "error", err)
		os.Exit(1)
	}
	logger.Info("word banks loaded", "locales", catalog.Locales())

	seed := cfg.Game.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Reference clock
	clock := clockwork.NewRealClock()
	var prober clocksync.Prober = clocksync.StaticProber{}
	if cfg.Clock.ReferenceURL != "" {
		prober = clocksync.NewHTTPProber(cfg.Clock.ReferenceURL, clock)
	}
	synchronizer := clocksync.New(prober,
		clocksync.WithClock(clock),
		clocksync.WithInterval(cfg.Clock.SyncInterval),
		clocksync.WithLogger(logger),
	)
	if err := synchronizer.Refresh(ctx); err != nil {
		// Rounds are refused until a later sync succeeds
		logger.Warn("initial clock sync failed", "error", err)
	}
	go synchronizer.Run(ctx)

	// Event publishing
	notifiers := notify.Multi{notify.NewLog(logger, slog.LevelDebug)}
	if cfg.NATS.URL != "" {
		natsCfg := notify.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		publisher, err := notify.ConnectNATS(natsCfg, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		logger.Info("publishing events to NATS", "url", cfg.NATS.URL, "prefix", natsCfg.SubjectPrefix)
	}

	// Create engine
	engine := app.NewEngine(app.Config{
		DefaultDurationMinutes: cfg.Game.DefaultDurationMinutes,
		MinParticipants:        cfg.Game.MinParticipants,
		MaxParticipants:        cfg.Game.MaxParticipants,
		CodeAttempts:           cfg.Game.AccessCodeAttempts,
		StaleSessionTimeout:    cfg.Game.StaleSessionTimeout,
	}, app.Deps{
		Store:    store.NewMemory(),
		Time:     synchronizer,
		Assigner: roles.NewSeededAssigner(seed, cfg.Game.FakeArtistFirstBiasPercent),
		Selector: words.NewSeededSelector(catalog, seed+1),
		Notifier: notifiers,
		Clock:    clock,
		Logger:   logger,
	})
	defer engine.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, engine, synchronizer, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
