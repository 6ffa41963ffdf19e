package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gameradar/internal/cli"
	apphttp "gameradar/internal/http"
	"gameradar/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	cfg := cli.MustLoadConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	app, err := cli.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Catalog:    app.Catalog,
		Games:      app.Service,
		Reconciler: app.Reconciler,
		Scheduler:  app.Scheduler,
		Gate:       app.Gate,
		Recent:     app.Recent,
		Logger:     logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	logger.Info("Starting gameradar server",
		"port", cfg.Port,
		"config", cli.Describe(cfg),
		"notification_permission", string(app.Gate.Permission()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.StartBackground(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(shutdownCtx); err != nil {
			logger.Error("Application shutdown error", log.FieldError, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
