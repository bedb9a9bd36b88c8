package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecwatch/pricewatch/internal/metrics"
	"github.com/ecwatch/pricewatch/internal/store"
)

// Reconciler audits the tracking_count invariant. Counter maintenance
// is transactional, so drift should not occur through Manager; the
// reconciler exists to repair damage from out-of-band writes and to
// make the invariant observable.
type Reconciler struct {
	store store.Store
	log   *slog.Logger
}

// NewReconciler creates a Reconciler backed by the given store.
func NewReconciler(s store.Store, log *slog.Logger) *Reconciler {
	return &Reconciler{store: s, log: log}
}

// Run recomputes every product's tracking_count from the tracking rows
// and returns how many products were out of sync.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	repaired, err := r.store.ReconcileTrackingCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconciling tracking counts: %w", err)
	}

	if repaired > 0 {
		metrics.TrackingCountRepairsTotal.Add(float64(repaired))
		r.log.Warn("tracking counts drifted and were repaired", "products", repaired)
	} else {
		r.log.Info("tracking counts consistent")
	}

	return repaired, nil
}
