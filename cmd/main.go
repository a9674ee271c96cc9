package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"weighit/internal/config"
	"weighit/internal/logger"
	"weighit/internal/repository"
	"weighit/internal/scale"
	"weighit/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// optional .env for local overrides, then config with defaults
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Get(logger.InfoLevel, "").Fatalw("error loading .env", "err", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel, "").Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel, cfg.LogFile)

	// open DB
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer closeDB(db, log)

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// seed reference data on first run
	if err := services.Catalog.EnsureDefaults(ctx); err != nil {
		log.Warnw("could not seed default catalog", "err", err)
	}

	// attach the scale: hardware first, mock fallback
	reader := scale.NewReader(scale.Config{
		PollInterval: cfg.Scale.PollInterval,
		DevicePaths:  cfg.Scale.DevicePaths,
		Window:       cfg.Scale.Stability.Window,
		EpsilonLb:    cfg.Scale.Stability.EpsilonLb,
		FloorLb:      cfg.Scale.Stability.FloorLb,
	}, log, services.DeviceLog)

	state := reader.Reconnect(ctx, cfg.Scale.ForceMock)
	log.Infow("scale ready", "state", state.String())

	// start background acquisition
	go reader.Run(ctx)

	// graceful shutdown
	waitForShutdown(cancel, reader, log)
}

func closeDB(db *sql.DB, log *logger.Logger) {
	if err := db.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// waitForShutdown listens for termination signals, stops the acquisition
// loop, and releases the device handle.
func waitForShutdown(cancel context.CancelFunc, reader *scale.Reader, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")
	cancel()
	reader.Close()
}
