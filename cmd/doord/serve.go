package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/groblegark/doord/internal/bridge"
	"github.com/groblegark/doord/internal/config"
	"github.com/groblegark/doord/internal/door"
	"github.com/groblegark/doord/internal/events"
	"github.com/groblegark/doord/internal/server"
	"github.com/groblegark/doord/internal/store"
	"github.com/groblegark/doord/internal/store/postgres"
	doorsync "github.com/groblegark/doord/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the door supervisor",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Open the transition history store.
		var history store.Store
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			history = pg
			logger.Info("transition history enabled")
		} else {
			history = store.Noop{}
			logger.Info("transition history disabled (DOORD_DATABASE_URL not set)")
		}

		// Build the door machine.
		machine := door.New(door.Config{
			DoorID: cfg.DoorID,
			Travel: cfg.Travel,
			Logger: logger,
		})

		// Connect the bus and start the bridge.
		var (
			publisher    events.Publisher
			bridgeCancel context.CancelFunc
		)
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				history.Close()
				return err
			}
			publisher = pub

			sub, err := events.NewNATSSubscriber(cfg.NATSURL, logger)
			if err != nil {
				publisher.Close()
				history.Close()
				return err
			}

			metrics := bridge.NewMetrics(prometheus.DefaultRegisterer)
			br := bridge.New(machine, sub, pub, history, logger, metrics)

			var bridgeCtx context.Context
			bridgeCtx, bridgeCancel = context.WithCancel(context.Background())
			go func() {
				if err := br.Run(bridgeCtx); err != nil {
					logger.Error("bridge error", "err", err)
				}
				sub.Close()
			}()
			logger.Info("bridge started", "door", cfg.DoorID, "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Warn("bridge disabled (DOORD_NATS_URL not set); serving HTTP only")
		}

		// Start the HTTP server.
		doorServer := server.NewDoorServer(machine, history, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: doorServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the sync scheduler if any destinations are configured.
		var scheduler *doorsync.Scheduler
		if cfg.SyncInterval > 0 {
			var dests []doorsync.Destination

			if cfg.SyncS3Bucket != "" {
				s3Dest, err := doorsync.NewS3Destination(
					context.Background(),
					cfg.DoorID,
					cfg.SyncS3Bucket,
					cfg.SyncS3Key,
					cfg.SyncS3Region,
					cfg.SyncS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 sync destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
				}
			}

			if cfg.SyncGitRepo != "" {
				gitDest := doorsync.NewGitDestination(cfg.DoorID, cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
				dests = append(dests, gitDest)
				logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
			}

			if len(dests) > 0 {
				scheduler = doorsync.NewScheduler(history, cfg.DoorID, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("doord started",
			"door", cfg.DoorID,
			"http_addr", cfg.HTTPAddr,
			"travel", cfg.Travel,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if bridgeCancel != nil {
			bridgeCancel()
			logger.Info("bridge stopped")
		}

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		machine.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := history.Close(); err != nil {
			logger.Error("error closing history store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
