// Package reconciler polls the remote game source for the tracked
// universes, folds changed update times into the catalog and notifies.
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gameradar/internal/core"
	"gameradar/internal/log"
	"gameradar/internal/notify"
)

// Store is the part of the catalog the reconciler reads and writes.
type Store interface {
	UniverseIDs() []string
	ApplyUpdates(ctx context.Context, infos map[string]core.GameInfo) []core.Game
}

// InfoSource fetches current game info in one batched call.
type InfoSource interface {
	GetGameInfo(ctx context.Context, universeIDs []string) (map[string]core.GameInfo, error)
}

// Result describes one poll cycle.
type Result struct {
	At      time.Time   `json:"at"`
	Checked int         `json:"checked"`
	Updated []core.Game `json:"updated"`
}

// Status accumulates what the poll loop has done since startup.
type Status struct {
	LastPoll     time.Time `json:"lastPoll"`
	LastUpdates  int       `json:"lastUpdates"`
	LastError    string    `json:"lastError,omitempty"`
	Polls        int64     `json:"polls"`
	Failures     int64     `json:"failures"`
	TotalUpdates int64     `json:"totalUpdates"`
}

type Reconciler struct {
	store    Store
	source   InfoSource
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time

	mu     sync.Mutex
	status Status
}

type Option func(*Reconciler)

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

func New(store Store, source InfoSource, notifier notify.Notifier, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		source:   source,
		notifier: notifier,
		logger:   log.Default(log.ComponentReconciler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Poll runs one cycle. With no tracked games it does nothing and makes no
// remote call. Notifications go out after the catalog has been saved.
func (r *Reconciler) Poll(ctx context.Context) (Result, error) {
	res := Result{At: r.now()}

	ids := r.store.UniverseIDs()
	if len(ids) == 0 {
		return res, nil
	}
	res.Checked = len(ids)

	infos, err := r.source.GetGameInfo(ctx, ids)
	if err != nil {
		r.record(res, err)
		return res, fmt.Errorf("fetch game info: %w", err)
	}

	res.Updated = r.store.ApplyUpdates(ctx, infos)
	r.record(res, nil)

	if len(res.Updated) == 0 {
		r.logger.DebugContext(ctx, "No updates", "checked", res.Checked)
		return res, nil
	}
	r.logger.InfoContext(ctx, "Updates found!", log.FieldUpdates, len(res.Updated))

	if r.notifier != nil {
		for _, g := range res.Updated {
			if err := r.notifier.Notify(ctx, notify.GameUpdated(g)); err != nil {
				r.logger.WarnContext(ctx, "Notification failed",
					log.FieldPlaceID, g.PlaceID, log.FieldError, err)
			}
		}
	}
	return res, nil
}

// Tick is Poll for the background loop: failures are logged and the next
// tick proceeds normally.
func (r *Reconciler) Tick(ctx context.Context) {
	if _, err := r.Poll(ctx); err != nil {
		r.logger.WarnContext(ctx, "Polling error", log.FieldError, err)
	}
}

func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Reconciler) record(res Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastPoll = res.At
	r.status.Polls++
	if err != nil {
		r.status.Failures++
		r.status.LastError = err.Error()
		return
	}
	r.status.LastError = ""
	r.status.LastUpdates = len(res.Updated)
	r.status.TotalUpdates += int64(len(res.Updated))
}
