package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gameradar/internal/amqp"
	"gameradar/internal/backend"
	"gameradar/internal/cli"
	"gameradar/internal/log"
	"gameradar/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	cfg := cli.MustLoadConfig(logger)

	logger.Info("Starting radar-worker", "config", cli.Describe(cfg))

	// The worker reads what the server persisted, so it needs the shared
	// database, a broker to hear about updates and a sheet to write to.
	if cfg.DataBackend != string(backend.SQLiteBackend) {
		logger.Error("radar-worker requires DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("radar-worker requires AMQP_URL")
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Error("radar-worker requires GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// the worker consumes updates, it never publishes them
	bcfg.AMQPURL = ""
	bcfg.NotifyLog = false

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).Create(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer res.Cleanup()
	if res.Mirror == nil {
		logger.Error("Google Sheets client unavailable", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(res.Gateway, res.Mirror,
		worker.Config{Interval: cfg.MirrorInterval},
		logger.WithComponent(log.ComponentWorker))

	logger.Info("Performing startup mirror...")
	if err := mirror.StartupMirror(ctx); err != nil {
		// not fatal, the periodic mirror retries
		logger.Error("Startup mirror failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeGameUpdates(gctx, mirror.HandleGameUpdated)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		if err := mirror.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mirror.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
