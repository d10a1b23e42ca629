package service

import (
	"context"
	"sync"
	"time"

	"cabins/pkg/config"
	"cabins/pkg/days"
)

// Scheduler reconciles the rolling horizon on a fixed interval. One run is
// in flight at a time; a tick that lands during a run is dropped.
type Scheduler struct {
	reconciler Reconciler
	cfg        *config.Config
	today      func() days.Day

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func NewScheduler(reconciler Reconciler, cfg *config.Config) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		cfg:        cfg,
		today:      days.Today,
	}
}

// Run blocks until ctx is done. A non-positive interval disables it.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.ReconcileInterval <= 0 {
		s.cfg.Log.Info("Reconcile scheduler disabled")
		return
	}

	s.cfg.Log.Info("Reconcile scheduler started",
		"interval", s.cfg.ReconcileInterval.String(),
		"horizon_days", s.cfg.ReconcileHorizonDays,
	)

	ticker := time.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			s.wg.Wait()
			s.cfg.Log.Info("Reconcile scheduler stopped")
			return
		}
	}
}

// RunOnce reconciles the current horizon for every room. It reports false
// when a run was already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.cfg.Log.Warn("Skipping reconcile tick, previous run still in progress")
		return false
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	rng := Horizon(s.cfg, s.today())
	if _, err := s.reconciler.Reconcile(ctx, nil, rng.From, rng.To); err != nil {
		s.cfg.Log.Error("Scheduled reconciliation failed", "range", rng.String(), "error", err)
	}
	return true
}
