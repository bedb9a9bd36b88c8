//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ecwatch/pricewatch/internal/store"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pricewatch_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func testProduct(id string) *domain.Product {
	return &domain.Product{
		ID:           id,
		Title:        "27in 4K Monitor",
		CurrentPrice: decimal.NewFromFloat(329.99),
		InStock:      true,
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_UpsertProduct(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("insert new product", func(t *testing.T) {
		p := testProduct("prod-1")
		require.NoError(t, s.UpsertProduct(ctx, p))
		assert.False(t, p.CreatedAt.IsZero())
		assert.False(t, p.UpdatedAt.IsZero())
		assert.Equal(t, 0, p.TrackingCount)
	})

	t.Run("upsert with changed price", func(t *testing.T) {
		p := testProduct("prod-2")
		require.NoError(t, s.UpsertProduct(ctx, p))

		p.CurrentPrice = decimal.NewFromFloat(289.99)
		p.InStock = false
		require.NoError(t, s.UpsertProduct(ctx, p))

		got, err := s.GetProduct(ctx, "prod-2")
		require.NoError(t, err)
		assert.True(t, got.CurrentPrice.Equal(decimal.NewFromFloat(289.99)))
		assert.False(t, got.InStock)
	})

	t.Run("get missing product", func(t *testing.T) {
		_, err := s.GetProduct(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPostgresStore_Observations(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProduct(ctx, testProduct("prod-obs")))

	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordObservation(ctx, &domain.PriceObservation{
		ProductID:  "prod-obs",
		ObservedOn: day,
		Price:      decimal.NewFromFloat(329.99),
		InStock:    true,
	}))

	// Duplicate day is ignored, first write wins.
	require.NoError(t, s.RecordObservation(ctx, &domain.PriceObservation{
		ProductID:  "prod-obs",
		ObservedOn: day,
		Price:      decimal.NewFromFloat(999.99),
		InStock:    true,
	}))

	require.NoError(t, s.RecordObservation(ctx, &domain.PriceObservation{
		ProductID:  "prod-obs",
		ObservedOn: day.AddDate(0, 0, -5),
		Price:      decimal.NewFromFloat(349.99),
		InStock:    true,
	}))

	obs, err := s.ListObservations(ctx, "prod-obs")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].ObservedOn.Before(obs[1].ObservedOn))
	assert.True(t, obs[1].Price.Equal(decimal.NewFromFloat(329.99)))
}

func TestPostgresStore_TrackingTransactions(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProduct(ctx, testProduct("prod-trk")))

	t.Run("upsert and adjust commit together", func(t *testing.T) {
		err := s.UpdateTracking(ctx, func(tx store.TrackingTx) error {
			if err := tx.Upsert(ctx, &domain.TrackingState{
				UserID:     "alice",
				ProductID:  "prod-trk",
				IsFavorite: true,
				EmailAlert: true,
			}); err != nil {
				return err
			}
			count, err := tx.AdjustTrackingCount(ctx, "prod-trk", 1)
			if err != nil {
				return err
			}
			assert.Equal(t, 1, count)
			return nil
		})
		require.NoError(t, err)

		p, err := s.GetProduct(ctx, "prod-trk")
		require.NoError(t, err)
		assert.Equal(t, 1, p.TrackingCount)

		st, err := s.GetTracking(ctx, "alice", "prod-trk")
		require.NoError(t, err)
		assert.True(t, st.EmailAlert)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		err := s.UpdateTracking(ctx, func(tx store.TrackingTx) error {
			if _, err := tx.AdjustTrackingCount(ctx, "prod-trk", 5); err != nil {
				return err
			}
			return context.Canceled
		})
		require.Error(t, err)

		p, err := s.GetProduct(ctx, "prod-trk")
		require.NoError(t, err)
		assert.Equal(t, 1, p.TrackingCount, "aborted adjust must not persist")
	})

	t.Run("counter floors at zero", func(t *testing.T) {
		err := s.UpdateTracking(ctx, func(tx store.TrackingTx) error {
			count, err := tx.AdjustTrackingCount(ctx, "prod-trk", -10)
			if err != nil {
				return err
			}
			assert.Equal(t, 0, count)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestPostgresStore_ReconcileTrackingCounts(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProduct(ctx, testProduct("prod-rec")))

	// Tracking row without the matching counter bump: drift.
	err := s.UpdateTracking(ctx, func(tx store.TrackingTx) error {
		return tx.Upsert(ctx, &domain.TrackingState{
			UserID:     "alice",
			ProductID:  "prod-rec",
			IsFavorite: true,
			PushAlert:  true,
		})
	})
	require.NoError(t, err)

	repaired, err := s.ReconcileTrackingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	p, err := s.GetProduct(ctx, "prod-rec")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TrackingCount)

	// A second pass finds nothing to repair.
	repaired, err = s.ReconcileTrackingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestPostgresStore_ListUserTracking(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	for _, id := range []string{"prod-a", "prod-b"} {
		require.NoError(t, s.UpsertProduct(ctx, testProduct(id)))
		err := s.UpdateTracking(ctx, func(tx store.TrackingTx) error {
			return tx.Upsert(ctx, &domain.TrackingState{
				UserID:     "alice",
				ProductID:  id,
				IsFavorite: true,
			})
		})
		require.NoError(t, err)
	}

	states, err := s.ListUserTracking(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, states, 2)
}
