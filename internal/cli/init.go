// Package cli holds the start-up steps shared by cmd/gameradar and
// cmd/radarctl: env loading, logging, config and wiring of the app graph.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gameradar/internal/config"
	"gameradar/internal/log"
)

// SetupLogger installs a text handler at the given level as the slog
// default and returns an app-scoped logger on top of it.
func SetupLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: log.ParseLevel(level)})
	logger := log.New(log.Config{Component: log.ComponentApp, Handler: handler})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadConfig reads and validates the environment configuration.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig for binaries that cannot run misconfigured.
func MustLoadConfig(logger *log.Logger) *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Describe is a one-line summary of the effective config for start-up logs.
func Describe(cfg *config.Config) string {
	proxy := cfg.RobloxProxyURL
	if proxy == "" {
		proxy = "direct"
	}
	return fmt.Sprintf("backend=%s poll=%s proxy=%s amqp=%t sheets=%t",
		cfg.DataBackend, cfg.PollInterval, proxy, cfg.AMQPEnabled(), cfg.SheetsEnabled())
}
