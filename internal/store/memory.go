package store

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// MemoryStore is an in-memory Store. It backs unit tests and the
// concurrency property tests; a single mutex gives every tracking
// transaction full isolation, so it never reports ErrSerialization.
type MemoryStore struct {
	mu           sync.Mutex
	products     map[string]*domain.Product
	observations map[string][]domain.PriceObservation
	tracking     map[string]map[string]*domain.TrackingState // userID -> productID
	nowFunc      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryNowFunc overrides the time source for deterministic tests.
func WithMemoryNowFunc(f func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.nowFunc = f
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		products:     make(map[string]*domain.Product),
		observations: make(map[string][]domain.PriceObservation),
		tracking:     make(map[string]map[string]*domain.TrackingState),
		nowFunc:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ping always succeeds.
func (*MemoryStore) Ping(context.Context) error { return nil }

// Migrate is a no-op; there is no schema.
func (*MemoryStore) Migrate(context.Context) error { return nil }

// GetProduct retrieves a product by ID.
func (m *MemoryStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpsertProduct inserts or updates a product, preserving tracking_count.
func (m *MemoryStore) UpsertProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	if existing, ok := m.products[p.ID]; ok {
		p.TrackingCount = existing.TrackingCount
		p.CreatedAt = existing.CreatedAt
	} else {
		p.TrackingCount = 0
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	cp := *p
	m.products[p.ID] = &cp
	return nil
}

// RecordObservation appends an observation, ignoring duplicate days.
func (m *MemoryStore) RecordObservation(_ context.Context, o *domain.PriceObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.observations[o.ProductID] {
		if sameDay(existing.ObservedOn, o.ObservedOn) {
			return nil
		}
	}

	obs := append(m.observations[o.ProductID], *o)
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].ObservedOn.Before(obs[j].ObservedOn)
	})
	m.observations[o.ProductID] = obs
	return nil
}

// ListObservations returns a product's observations in chronological order.
func (m *MemoryStore) ListObservations(
	_ context.Context,
	productID string,
) ([]domain.PriceObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obs := m.observations[productID]
	out := make([]domain.PriceObservation, len(obs))
	copy(out, obs)
	return out, nil
}

// GetTracking retrieves the tracking record for a (user, product) pair.
func (m *MemoryStore) GetTracking(
	_ context.Context,
	userID, productID string,
) (*domain.TrackingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.tracking[userID][productID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

// ListUserTracking returns all tracking records for a user, newest first.
func (m *MemoryStore) ListUserTracking(
	_ context.Context,
	userID string,
) ([]domain.TrackingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var states []domain.TrackingState
	for _, st := range m.tracking[userID] {
		states = append(states, *st)
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].CreatedAt.Equal(states[j].CreatedAt) {
			return states[i].ProductID < states[j].ProductID
		}
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})
	return states, nil
}

// CountProductTracking counts tracking rows for a product with any alert on.
func (m *MemoryStore) CountProductTracking(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countAlerting(productID), nil
}

// UpdateTracking runs fn under the store mutex, giving it the same
// all-or-nothing isolation a database transaction would. A non-nil error
// from fn discards every buffered change.
func (m *MemoryStore) UpdateTracking(
	ctx context.Context,
	fn func(tx TrackingTx) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTrackingTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// ReconcileTrackingCounts recomputes every product's tracking_count.
func (m *MemoryStore) ReconcileTrackingCounts(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	repaired := 0
	for id, p := range m.products {
		if n := m.countAlerting(id); n != p.TrackingCount {
			p.TrackingCount = n
			p.UpdatedAt = m.nowFunc()
			repaired++
		}
	}
	return repaired, nil
}

func (m *MemoryStore) countAlerting(productID string) int {
	n := 0
	for _, byProduct := range m.tracking {
		if st, ok := byProduct[productID]; ok && st.Tracking() {
			n++
		}
	}
	return n
}

// memTrackingTx buffers mutations until commit so that a failed
// transaction leaves the store untouched. The store mutex is held for
// the whole transaction.
type memTrackingTx struct {
	store   *MemoryStore
	upserts []domain.TrackingState
	deletes [][2]string // userID, productID
	adjusts map[string]int
}

func (t *memTrackingTx) GetForUpdate(
	_ context.Context,
	userID, productID string,
) (*domain.TrackingState, error) {
	st, ok := t.store.tracking[userID][productID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (t *memTrackingTx) CountFavorites(_ context.Context, userID string) (int, error) {
	n := 0
	for _, st := range t.store.tracking[userID] {
		if st.IsFavorite {
			n++
		}
	}
	return n, nil
}

func (t *memTrackingTx) Upsert(_ context.Context, st *domain.TrackingState) error {
	t.upserts = append(t.upserts, *st)
	return nil
}

func (t *memTrackingTx) Delete(_ context.Context, userID, productID string) error {
	t.deletes = append(t.deletes, [2]string{userID, productID})
	return nil
}

func (t *memTrackingTx) AdjustTrackingCount(
	_ context.Context,
	productID string,
	delta int,
) (int, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	if t.adjusts == nil {
		t.adjusts = make(map[string]int)
	}
	t.adjusts[productID] += delta

	count := p.TrackingCount + t.adjusts[productID]
	if count < 0 {
		count = 0
	}
	return count, nil
}

func (t *memTrackingTx) TrackingCount(_ context.Context, productID string) (int, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	return p.TrackingCount + t.adjusts[productID], nil
}

func (t *memTrackingTx) commit() {
	now := t.store.nowFunc()

	for i := range t.upserts {
		st := t.upserts[i]
		byProduct, ok := t.store.tracking[st.UserID]
		if !ok {
			byProduct = make(map[string]*domain.TrackingState)
			t.store.tracking[st.UserID] = byProduct
		}
		if existing, ok := byProduct[st.ProductID]; ok {
			st.CreatedAt = existing.CreatedAt
		} else {
			st.CreatedAt = now
		}
		st.UpdatedAt = now
		byProduct[st.ProductID] = &st
	}

	for _, key := range t.deletes {
		delete(t.store.tracking[key[0]], key[1])
	}

	for productID, delta := range t.adjusts {
		p := t.store.products[productID]
		p.TrackingCount += delta
		if p.TrackingCount < 0 {
			p.TrackingCount = 0
		}
		p.UpdatedAt = now
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
