package cli

import (
	"context"
	"fmt"
	"time"

	"gameradar/internal/backend"
	"gameradar/internal/cache"
	"gameradar/internal/catalog"
	"gameradar/internal/config"
	"gameradar/internal/log"
	"gameradar/internal/notify"
	"gameradar/internal/reconciler"
	"gameradar/internal/roblox"
	"gameradar/internal/services"
)

// App is the wired object graph. Both binaries build it the same way.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Catalog    *catalog.Catalog
	Source     *roblox.Client
	Service    *services.GameService
	Reconciler *reconciler.Reconciler
	Scheduler  *reconciler.Scheduler
	Gate       *notify.Gate
	Recent     *notify.Recorder
	Caches     *cache.Manager

	cleanup backend.CleanupFunc
}

// Build opens storage and constructs every component from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).Create(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	cat := catalog.New(ctx, res.Gateway, catalog.WithLogger(logger.WithComponent(log.ComponentCatalog)))

	src := roblox.New(roblox.Config{
		ProxyURL: cfg.RobloxProxyURL,
		Timeout:  cfg.HTTPTimeout,
		CacheTTL: cfg.UniverseCacheTTL,
		Logger:   logger.WithComponent(log.ComponentRoblox),
	})

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache))
	caches.Register(src.UniverseCache())

	rec := reconciler.New(cat, src, res.Notifier,
		reconciler.WithLogger(logger.WithComponent(log.ComponentReconciler)))
	sched := reconciler.NewScheduler(rec, reconciler.SchedulerConfig{
		Interval:    cfg.PollInterval,
		PollOnStart: cfg.PollOnStart,
	})

	svcOpts := []services.Option{services.WithLogger(logger.WithComponent(log.ComponentService))}
	if res.Mirror != nil {
		svcOpts = append(svcOpts, services.WithSheetMirror(res.Mirror))
	}
	svc := services.NewGameService(cat, src, svcOpts...)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    cat,
		Source:     src,
		Service:    svc,
		Reconciler: rec,
		Scheduler:  sched,
		Gate:       res.Gate,
		Recent:     res.Recent,
		Caches:     caches,
		cleanup:    res.Cleanup,
	}, nil
}

// StartBackground starts the poll scheduler and the cache sweeper.
func (a *App) StartBackground(ctx context.Context) error {
	a.Caches.Start(ctx, 10*time.Minute)
	return a.Scheduler.Start(ctx)
}

// Close stops background work and releases storage and broker handles.
func (a *App) Close(ctx context.Context) error {
	if err := a.Scheduler.Stop(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Scheduler did not stop cleanly", log.FieldError, err)
	}
	a.Caches.Stop()
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
