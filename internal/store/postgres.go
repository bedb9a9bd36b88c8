package store

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
// Covered by the integration test suite; unit tests use MemoryStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*pgxpool.Config)

// WithPoolSize sets the maximum number of pooled connections.
func WithPoolSize(n int) PostgresOption {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = int32(n)
		}
	}
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// Numeric columns scan into shopspring decimals.
func NewPostgresStore(ctx context.Context, connString string, opts ...PostgresOption) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// GetProduct retrieves a catalog product by its ID.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	err := s.pool.QueryRow(ctx, queryGetProduct, id).Scan(
		&p.ID, &p.Title, &p.CurrentPrice, &p.InStock, &p.TrackingCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapRowErr(err, "getting product")
	}
	return p, nil
}

// UpsertProduct inserts or updates a catalog product by ID. The
// tracking_count column is never written here; it is owned by the
// tracking transaction path and the reconciler.
func (s *PostgresStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	args := pgx.NamedArgs{
		"id":            p.ID,
		"title":         p.Title,
		"current_price": p.CurrentPrice,
		"in_stock":      p.InStock,
	}

	err := s.pool.QueryRow(ctx, queryUpsertProduct, args).Scan(
		&p.TrackingCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting product: %w", err)
	}
	return nil
}

// RecordObservation appends a price observation. Observations are
// immutable: a duplicate (product, day) insert is silently ignored.
func (s *PostgresStore) RecordObservation(ctx context.Context, o *domain.PriceObservation) error {
	_, err := s.pool.Exec(ctx, queryRecordObservation,
		o.ProductID, o.ObservedOn, o.Price, o.InStock,
	)
	if err != nil {
		return fmt.Errorf("recording observation: %w", err)
	}
	return nil
}

// ListObservations returns all observations for a product in
// chronological order.
func (s *PostgresStore) ListObservations(
	ctx context.Context,
	productID string,
) ([]domain.PriceObservation, error) {
	rows, err := s.pool.Query(ctx, queryListObservations, productID)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var obs []domain.PriceObservation
	for rows.Next() {
		var o domain.PriceObservation
		if err := rows.Scan(&o.ProductID, &o.ObservedOn, &o.Price, &o.InStock); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		obs = append(obs, o)
	}

	return obs, rows.Err()
}

// GetTracking retrieves the tracking record for a (user, product) pair.
func (s *PostgresStore) GetTracking(
	ctx context.Context,
	userID, productID string,
) (*domain.TrackingState, error) {
	st := &domain.TrackingState{}
	err := scanTracking(s.pool.QueryRow(ctx, queryGetTracking, userID, productID), st)
	if err != nil {
		return nil, mapRowErr(err, "getting tracking state")
	}
	return st, nil
}

// ListUserTracking returns all tracking records for a user, newest first.
func (s *PostgresStore) ListUserTracking(
	ctx context.Context,
	userID string,
) ([]domain.TrackingState, error) {
	rows, err := s.pool.Query(ctx, queryListUserTracking, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user tracking: %w", err)
	}
	defer rows.Close()

	var states []domain.TrackingState
	for rows.Next() {
		var st domain.TrackingState
		if err := scanTracking(rows, &st); err != nil {
			return nil, fmt.Errorf("scanning tracking state: %w", err)
		}
		states = append(states, st)
	}

	return states, rows.Err()
}

// CountProductTracking returns the number of tracking rows for a product
// with at least one alert channel enabled. This is the ground truth the
// denormalized tracking_count must match.
func (s *PostgresStore) CountProductTracking(ctx context.Context, productID string) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, queryCountProductTracking, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting product tracking: %w", err)
	}
	return count, nil
}

// UpdateTracking runs fn inside a database transaction. Row locks taken
// by GetForUpdate serialize concurrent tracking writers; serialization
// failures and deadlocks surface as ErrSerialization after rollback, so
// neither the state row nor the counter is partially applied.
func (s *PostgresStore) UpdateTracking(
	ctx context.Context,
	fn func(tx TrackingTx) error,
) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning tracking transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTrackingTx{tx: tx}); err != nil {
		return mapTxErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapTxErr(fmt.Errorf("committing tracking transaction: %w", err))
	}
	return nil
}

// ReconcileTrackingCounts recomputes tracking_count for every product
// and returns the number of repaired rows.
func (s *PostgresStore) ReconcileTrackingCounts(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, queryReconcileTrackingCounts)
	if err != nil {
		return 0, fmt.Errorf("reconciling tracking counts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// pgTrackingTx implements TrackingTx over a pgx transaction.
type pgTrackingTx struct {
	tx pgx.Tx
}

func (t *pgTrackingTx) GetForUpdate(
	ctx context.Context,
	userID, productID string,
) (*domain.TrackingState, error) {
	st := &domain.TrackingState{}
	err := scanTracking(t.tx.QueryRow(ctx, queryGetTrackingForUpdate, userID, productID), st)
	if err != nil {
		return nil, mapRowErr(err, "locking tracking state")
	}
	return st, nil
}

func (t *pgTrackingTx) CountFavorites(ctx context.Context, userID string) (int, error) {
	var count int
	if err := t.tx.QueryRow(ctx, queryCountFavorites, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting favorites: %w", err)
	}
	return count, nil
}

func (t *pgTrackingTx) Upsert(ctx context.Context, st *domain.TrackingState) error {
	args := pgx.NamedArgs{
		"user_id":     st.UserID,
		"product_id":  st.ProductID,
		"is_favorite": st.IsFavorite,
		"email_alert": st.EmailAlert,
		"push_alert":  st.PushAlert,
	}
	if _, err := t.tx.Exec(ctx, queryUpsertTracking, args); err != nil {
		return fmt.Errorf("upserting tracking state: %w", err)
	}
	return nil
}

func (t *pgTrackingTx) Delete(ctx context.Context, userID, productID string) error {
	if _, err := t.tx.Exec(ctx, queryDeleteTracking, userID, productID); err != nil {
		return fmt.Errorf("deleting tracking state: %w", err)
	}
	return nil
}

func (t *pgTrackingTx) AdjustTrackingCount(
	ctx context.Context,
	productID string,
	delta int,
) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, queryAdjustTrackingCount, productID, delta).Scan(&count)
	if err != nil {
		return 0, mapRowErr(err, "adjusting tracking count")
	}
	return count, nil
}

func (t *pgTrackingTx) TrackingCount(ctx context.Context, productID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, queryGetTrackingCount, productID).Scan(&count)
	if err != nil {
		return 0, mapRowErr(err, "reading tracking count")
	}
	return count, nil
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

func scanTracking(row scannable, st *domain.TrackingState) error {
	return row.Scan(
		&st.UserID, &st.ProductID, &st.IsFavorite, &st.EmailAlert, &st.PushAlert,
		&st.CreatedAt, &st.UpdatedAt,
	)
}

// mapRowErr converts pgx.ErrNoRows to ErrNotFound and wraps everything else.
func mapRowErr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Postgres error codes signaling a lost race that is safe to retry.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapTxErr converts retry-safe Postgres failures to ErrSerialization.
func mapTxErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected {
			return fmt.Errorf("%w: %s", ErrSerialization, pgErr.Message)
		}
	}
	return err
}
