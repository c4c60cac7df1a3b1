package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"campus-gate-control/internal/access"
	"campus-gate-control/internal/api"
	"campus-gate-control/internal/archive"
	"campus-gate-control/internal/auth"
	"campus-gate-control/internal/config"
	"campus-gate-control/internal/events"
	"campus-gate-control/internal/gate"
	"campus-gate-control/internal/logging"
	"campus-gate-control/internal/store"
)

const version = "1.0.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gate control service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := logging.Initialize(cfg.LogLevel)
	if cfg.LogFile != "" {
		if err := logging.SetupFileLogging(logger, cfg.LogFile); err != nil {
			return fmt.Errorf("failed to set up file logging: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"version":       version,
		"database_path": cfg.DatabasePath,
	}).Info("Starting campus gate control service")

	db, err := store.NewDB(store.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	bus := events.NewBus(logger)
	defer bus.Close()

	controller := gate.NewController(gate.Config{
		AutoCloseDelay: time.Duration(cfg.GateAutoCloseMs) * time.Millisecond,
	}, db, bus, gate.WithLogger(logger))

	engine := access.NewEngine(db, controller, bus, access.WithEngineLogger(logger))

	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis event mirror for external consumers
	if cfg.RedisAddr != "" {
		publisher, err := events.NewRedisPublisher(events.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Queue:    cfg.EventQueue,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, event mirroring disabled")
		} else {
			defer publisher.Close()
			go publisher.Run(ctx, bus.Subscribe(256))
			logger.WithField("addr", cfg.RedisAddr).Info("Redis event mirroring enabled")
		}
	}

	// Optional PostgreSQL ledger archive
	if cfg.ArchiveDSN != "" {
		archiver, err := archive.New(cfg.ArchiveDSN, archive.WithLogger(logger))
		if err != nil {
			logger.WithError(err).Warn("Archive database unavailable, ledger archiving disabled")
		} else {
			defer archiver.Close()
			go archiver.Run(ctx, bus.Subscribe(256))
			logger.Info("Ledger archiving enabled")
		}
	}

	handlers := api.NewHandlers(cfg, logger, db, engine, tokens, bus, version)
	server := api.NewServer(cfg, logger, handlers, tokens)

	// Shut down on SIGINT or SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Info("Received shutdown signal")
		cancel()
	}()

	err = server.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	controller.Shutdown(shutdownCtx)

	return err
}
