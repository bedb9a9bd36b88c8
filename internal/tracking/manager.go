// Package tracking owns the per-(user, product) favorite/alert state
// machine and the denormalized Product.TrackingCount. Every counter
// mutation in the system flows through Manager; that single code path is
// what keeps the count == alerting-rows invariant provable.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecwatch/pricewatch/internal/metrics"
	"github.com/ecwatch/pricewatch/internal/store"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// Defaults for the manager's limits.
const (
	DefaultFavoriteLimit = 200
	DefaultMaxAttempts   = 3
)

// Typed failures surfaced to callers. They represent user-actionable
// states and are never swallowed.
var (
	// ErrLimitExceeded: the user already has the maximum number of
	// favorited products.
	ErrLimitExceeded = errors.New("favorite limit exceeded")
	// ErrAlertsActive: a favorite cannot be removed while an alert
	// channel is enabled; disable alerts first.
	ErrAlertsActive = errors.New("alerts active on favorite")
	// ErrNotFavorited: the operation needs an existing favorite record.
	ErrNotFavorited = errors.New("product not favorited")
	// ErrTransient: the operation kept losing transaction races and gave
	// up after the retry budget; safe to retry from the caller.
	ErrTransient = errors.New("transient tracking failure")
)

// Manager applies favorite/alert transitions transactionally.
type Manager struct {
	store         store.Store
	favoriteLimit int
	maxAttempts   int
	log           *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithFavoriteLimit overrides the per-user favorite cap.
func WithFavoriteLimit(n int) Option {
	return func(m *Manager) {
		m.favoriteLimit = n
	}
}

// WithMaxAttempts overrides the conflict retry budget.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		m.maxAttempts = n
	}
}

// NewManager creates a Manager backed by the given store.
func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:         s,
		favoriteLimit: DefaultFavoriteLimit,
		maxAttempts:   DefaultMaxAttempts,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status is the post-operation view returned to callers. State is nil
// after a removal; TrackingCount is the product's counter as of the
// committed transaction.
type Status struct {
	State         *domain.TrackingState `json:"state,omitempty"`
	TrackingCount int                   `json:"tracking_count"`
}

// AddFavorite creates (or re-affirms) the favorite record for a
// (user, product) pair. Alert flags are untouched, so the counter never
// changes here. Fails with ErrLimitExceeded at the favorite cap.
func (m *Manager) AddFavorite(ctx context.Context, userID, productID string) (*Status, error) {
	return m.run(ctx, "add_favorite", func(tx store.TrackingTx) (*Status, error) {
		st, err := tx.GetForUpdate(ctx, userID, productID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			favorites, err := tx.CountFavorites(ctx, userID)
			if err != nil {
				return nil, err
			}
			if favorites >= m.favoriteLimit {
				return nil, ErrLimitExceeded
			}
			st = &domain.TrackingState{
				UserID:     userID,
				ProductID:  productID,
				IsFavorite: true,
			}
		case err != nil:
			return nil, err
		default:
			st.IsFavorite = true
		}

		if err := tx.Upsert(ctx, st); err != nil {
			return nil, err
		}

		count, err := tx.TrackingCount(ctx, productID)
		if err != nil {
			return nil, err
		}
		return &Status{State: st, TrackingCount: count}, nil
	})
}

// RemoveFavorite deletes the favorite record outright. Fails with
// ErrAlertsActive while any alert channel is on (the caller must
// disable alerts first) and ErrNotFavorited when there is no record. A
// deletable record is by definition not tracking, so the counter is
// read, not adjusted.
func (m *Manager) RemoveFavorite(ctx context.Context, userID, productID string) (*Status, error) {
	return m.run(ctx, "remove_favorite", func(tx store.TrackingTx) (*Status, error) {
		st, err := tx.GetForUpdate(ctx, userID, productID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFavorited
		}
		if err != nil {
			return nil, err
		}

		if st.Tracking() {
			return nil, ErrAlertsActive
		}

		if err := tx.Delete(ctx, userID, productID); err != nil {
			return nil, err
		}

		count, err := tx.TrackingCount(ctx, productID)
		if err != nil {
			return nil, err
		}
		return &Status{TrackingCount: count}, nil
	})
}

// SetAlert flips a single alert channel flag. Fails with ErrNotFavorited
// when no record exists. The counter is adjusted only on a 0<->1 alert
// transition, decided from the row state read under the same lock that
// guards the flip, never from a separately-read snapshot.
func (m *Manager) SetAlert(
	ctx context.Context,
	userID, productID string,
	ch domain.Channel,
	enabled bool,
) (*Status, error) {
	return m.run(ctx, "set_alert", func(tx store.TrackingTx) (*Status, error) {
		st, err := tx.GetForUpdate(ctx, userID, productID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFavorited
		}
		if err != nil {
			return nil, err
		}

		wasTracking := st.Tracking()
		st.SetAlertFlag(ch, enabled)
		isTracking := st.Tracking()

		if err := tx.Upsert(ctx, st); err != nil {
			return nil, err
		}

		var count int
		switch {
		case wasTracking == isTracking:
			count, err = tx.TrackingCount(ctx, productID)
		case isTracking:
			count, err = tx.AdjustTrackingCount(ctx, productID, +1)
		default:
			count, err = tx.AdjustTrackingCount(ctx, productID, -1)
		}
		if err != nil {
			return nil, err
		}

		return &Status{State: st, TrackingCount: count}, nil
	})
}

// run executes fn inside a store transaction, retrying serialization
// conflicts up to the attempt budget. The flag write and the counter
// adjustment commit together or not at all.
func (m *Manager) run(
	ctx context.Context,
	op string,
	fn func(tx store.TrackingTx) (*Status, error),
) (*Status, error) {
	var lastErr error

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		var status *Status
		err := m.store.UpdateTracking(ctx, func(tx store.TrackingTx) error {
			var ferr error
			status, ferr = fn(tx)
			return ferr
		})
		if err == nil {
			metrics.TrackingOpsTotal.WithLabelValues(op, "ok").Inc()
			return status, nil
		}

		if errors.Is(err, store.ErrSerialization) {
			metrics.TrackingConflictRetriesTotal.Inc()
			m.log.Debug("tracking transaction conflict, retrying",
				"op", op,
				"attempt", attempt,
			)
			lastErr = err
			continue
		}

		metrics.TrackingOpsTotal.WithLabelValues(op, resultLabel(err)).Inc()
		return nil, err
	}

	metrics.TrackingOpsTotal.WithLabelValues(op, "transient").Inc()
	m.log.Warn("tracking operation exhausted retry budget",
		"op", op,
		"attempts", m.maxAttempts,
	)
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrTransient, m.maxAttempts, lastErr)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrAlertsActive):
		return "alerts_active"
	case errors.Is(err, ErrNotFavorited):
		return "not_favorited"
	default:
		return "error"
	}
}
