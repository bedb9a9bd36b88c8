// Package store defines the datastore abstraction for pricewatch.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables testing against the in-memory store
// without a running database.
package store

import (
	"context"
	"errors"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrSerialization is returned when a tracking transaction lost a race
// and should be retried by the caller.
var ErrSerialization = errors.New("transaction serialization conflict")

// Store defines all data access operations for pricewatch.
type Store interface {
	// Catalog
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpsertProduct(ctx context.Context, p *domain.Product) error

	// Price observations. The collector writes them; the history core
	// only ever reads.
	RecordObservation(ctx context.Context, o *domain.PriceObservation) error
	ListObservations(ctx context.Context, productID string) ([]domain.PriceObservation, error)

	// Tracking reads
	GetTracking(ctx context.Context, userID, productID string) (*domain.TrackingState, error)
	ListUserTracking(ctx context.Context, userID string) ([]domain.TrackingState, error)
	CountProductTracking(ctx context.Context, productID string) (int, error)

	// UpdateTracking runs fn inside a single transaction. Every mutation
	// of tracking state and of Product.TrackingCount goes through here;
	// the per-row lock taken by TrackingTx.GetForUpdate serializes
	// concurrent writers for a product. An ErrSerialization return means
	// neither the state row nor the counter changed.
	UpdateTracking(ctx context.Context, fn func(tx TrackingTx) error) error

	// ReconcileTrackingCounts recomputes every product's tracking_count
	// from the tracking rows and returns how many products were out of
	// sync and repaired.
	ReconcileTrackingCounts(ctx context.Context) (int, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}

// TrackingTx is the set of operations available inside a tracking
// transaction.
type TrackingTx interface {
	// GetForUpdate loads the tracking row with a write lock, or
	// ErrNotFound if absent.
	GetForUpdate(ctx context.Context, userID, productID string) (*domain.TrackingState, error)
	// CountFavorites returns the number of products the user has favorited.
	CountFavorites(ctx context.Context, userID string) (int, error)
	// Upsert creates or replaces the tracking row.
	Upsert(ctx context.Context, st *domain.TrackingState) error
	// Delete removes the tracking row entirely.
	Delete(ctx context.Context, userID, productID string) error
	// AdjustTrackingCount atomically adds delta to the product's
	// tracking_count, floored at zero, and returns the new value.
	AdjustTrackingCount(ctx context.Context, productID string, delta int) (int, error)
	// TrackingCount returns the product's current tracking_count.
	TrackingCount(ctx context.Context, productID string) (int, error)
}
