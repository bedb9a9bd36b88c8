package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the tracking-count reconciliation on a fixed interval.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
	log        *slog.Logger
}

// NewScheduler creates a Scheduler that reconciles every interval.
func NewScheduler(
	r *Reconciler,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:       c,
		reconciler: r,
		log:        log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runReconcile); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("reconcile scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("reconcile scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runReconcile() {
	ctx := context.Background()
	s.log.Info("scheduled reconciliation starting")
	if _, err := s.reconciler.Run(ctx); err != nil {
		s.log.Error("scheduled reconciliation failed", "error", err)
	}
}
