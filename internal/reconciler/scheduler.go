package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gameradar/internal/log"
)

// ErrPollInProgress is returned by TriggerNow while another poll runs.
var ErrPollInProgress = errors.New("poll already in progress")

const DefaultInterval = 60 * time.Second

type SchedulerConfig struct {
	Interval time.Duration
	// PollOnStart runs one cycle immediately instead of waiting a full interval.
	PollOnStart bool
}

// Scheduler drives a Reconciler on a ticker. A tick that fires while the
// previous poll is still running is skipped.
type Scheduler struct {
	rec    *Reconciler
	config SchedulerConfig
	logger *log.Logger

	busy    atomic.Bool
	skipped atomic.Int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(rec *Reconciler, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Scheduler{
		rec:    rec,
		config: config,
		logger: rec.logger,
	}
}

// Start begins the poll loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	s.logger.InfoContext(ctx, "Update scheduler started", "interval", s.config.Interval.String())
	return nil
}

// Stop signals the loop and waits for an in-flight poll to finish, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Update scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Update scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Skipped reports how many ticks were dropped because a poll was running.
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// TriggerNow runs an out-of-band poll under the same overlap guard.
func (s *Scheduler) TriggerNow(ctx context.Context) (Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{}, ErrPollInProgress
	}
	defer s.busy.Store(false)
	return s.rec.Poll(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// A cancelled parent or Stop aborts the in-flight HTTP call too.
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-loopCtx.Done():
		}
	}()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	if s.config.PollOnStart {
		s.tick(loopCtx)
	}
	for {
		select {
		case <-stopCh:
			return
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				s.tick(loopCtx)
			}()
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.DebugContext(ctx, "Poll still running, tick skipped")
		return
	}
	defer s.busy.Store(false)
	s.rec.Tick(ctx)
}
