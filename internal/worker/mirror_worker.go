package worker

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gameradar/internal/amqp"
	"gameradar/internal/csvcodec"
	"gameradar/internal/log"
	"gameradar/internal/sheets"
	"gameradar/internal/storage"
)

// Config holds configuration for the mirror worker.
type Config struct {
	// Interval is how often the whole store is re-mirrored regardless of
	// update messages (default: 15m).
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: 15 * time.Minute}
}

// MirrorWorker keeps a Google Sheet in step with the persisted store. It
// re-reads the store on every update message and on a fixed interval.
type MirrorWorker struct {
	store  storage.Gateway
	sheet  sheets.RowWriter
	config Config
	logger *log.Logger

	// mirrorMu serializes writes and guards last.
	mirrorMu sync.Mutex
	last     [][]string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(store storage.Gateway, sheet sheets.RowWriter, config Config, logger *log.Logger) *MirrorWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &MirrorWorker{
		store:  store,
		sheet:  sheet,
		config: config,
		logger: logger,
	}
}

// Mirror writes the persisted store to the sheet and returns the number of
// data rows. Unless force is set, a table identical to the last one written
// is not sent again.
func (w *MirrorWorker) Mirror(ctx context.Context, force bool) (int, error) {
	st, ok, err := w.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load store: %w", err)
	}
	if !ok {
		w.logger.DebugContext(ctx, "Nothing persisted yet, skipping mirror")
		return 0, nil
	}

	rows := csvcodec.Table(st.Categories)

	w.mirrorMu.Lock()
	defer w.mirrorMu.Unlock()

	if !force && w.last != nil && sameTable(rows, w.last) {
		w.logger.DebugContext(ctx, "Store unchanged since last mirror", "rows", len(rows)-1)
		return len(rows) - 1, nil
	}
	if err := w.sheet.ReplaceRows(ctx, rows); err != nil {
		return 0, fmt.Errorf("replace sheet rows: %w", err)
	}
	w.last = rows

	w.logger.InfoContext(ctx, "Store mirrored to sheet",
		log.FieldOperation, log.OpSync,
		"rows", len(rows)-1,
		"forced", force)
	return len(rows) - 1, nil
}

// HandleGameUpdated mirrors the store after an update message. An error
// leaves the message for redelivery.
func (w *MirrorWorker) HandleGameUpdated(ctx context.Context, msg *amqp.GameUpdatedMessage) error {
	w.logger.InfoContext(ctx, "Processing game update",
		log.FieldPlaceID, msg.PlaceID,
		log.FieldUniverseID, msg.UniverseID,
		"last_updated", msg.LastUpdated)

	if _, err := w.Mirror(ctx, false); err != nil {
		return fmt.Errorf("mirror after update of place %s: %w", msg.PlaceID, err)
	}
	return nil
}

// StartupMirror writes the store once so a sheet left stale while the
// worker was down is brought up to date.
func (w *MirrorWorker) StartupMirror(ctx context.Context) error {
	rows, err := w.Mirror(ctx, true)
	if err != nil {
		return fmt.Errorf("startup mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup mirror complete", log.FieldOperation, log.OpStartup, "rows", rows)
	return nil
}

// Start begins the periodic mirror loop. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stopCh, doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.logger.InfoContext(ctx, "Mirror worker started", "interval", w.config.Interval)
	return nil
}

// Stop ends the loop and waits for an in-flight mirror to finish.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Mirror worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := w.Mirror(ctx, true); err != nil {
				w.logger.ErrorContext(ctx, "Periodic mirror failed", log.FieldError, err)
			}
		}
	}
}

func sameTable(a, b [][]string) bool {
	return slices.EqualFunc(a, b, func(x, y []string) bool { return slices.Equal(x, y) })
}
