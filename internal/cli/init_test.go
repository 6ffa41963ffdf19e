package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"gameradar/internal/config"
	"gameradar/internal/notify"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("level not applied: %s", out)
	}
	if !strings.Contains(out, "component=app") {
		t.Fatalf("component missing: %s", out)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}

	t.Setenv("DATA_BACKEND", "cassandra")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("invalid backend should fail validation")
	}
}

func TestDescribe(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", PollInterval: time.Minute}
	got := Describe(cfg)
	if !strings.Contains(got, "proxy=direct") || !strings.Contains(got, "poll=1m0s") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestBuildMemoryApp(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "error")
	cfg := &config.Config{
		DataBackend:      "memory",
		HTTPTimeout:      time.Second,
		PollInterval:     time.Hour,
		NotifyPermission: "granted",
	}

	app, err := Build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(app.Catalog.Snapshot().Categories) != 1 {
		t.Fatalf("fresh app should start with Default only")
	}
	if err := app.StartBackground(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBuildRecordsOnlyPermittedNotifications(t *testing.T) {
	logger := SetupLogger(&bytes.Buffer{}, "error")
	cfg := &config.Config{
		DataBackend:      "memory",
		HTTPTimeout:      time.Second,
		PollInterval:     time.Hour,
		NotifyPermission: "denied",
	}
	app, err := Build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close(context.Background())

	n := notify.Notification{Title: "Update: Adopt Me!", PlaceID: "920587237"}
	if err := app.Gate.Notify(context.Background(), n); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := app.Recent.Recent(); len(got) != 0 {
		t.Fatalf("denied permission still recorded %+v", got)
	}
}
