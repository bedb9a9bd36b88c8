package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecwatch/pricewatch/internal/metrics"
	"github.com/ecwatch/pricewatch/internal/store"
	"github.com/ecwatch/pricewatch/pkg/advisor"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// Service serves chart series, price summaries, and buy suggestions for
// catalog products. It reads the store fresh on every call; there is no
// cache to invalidate.
type Service struct {
	store      store.Store
	thresholds advisor.Thresholds
	log        *slog.Logger
	nowFunc    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithThresholds overrides the suggestion thresholds.
func WithThresholds(th advisor.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = th
	}
}

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(s *Service) {
		s.nowFunc = f
	}
}

// NewService creates a history Service backed by the given store.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		thresholds: advisor.DefaultThresholds(),
		log:        slog.Default(),
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChartSeries builds the chart series for a product. An unknown product
// degrades to a single synthetic out-of-stock point: the chart must
// always render, so the catalog miss is absorbed here rather than
// surfaced.
func (s *Service) ChartSeries(ctx context.Context, productID string) (domain.ChartSeries, error) {
	start := time.Now()
	defer func() {
		metrics.ChartBuildDuration.Observe(time.Since(start).Seconds())
	}()

	cur, obs, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	if len(obs) == 0 {
		metrics.ChartSyntheticPointsTotal.Inc()
	}

	return BuildSeries(obs, cur, s.nowFunc()), nil
}

// Summary derives the price summary for a product. Unknown products
// summarize as out of stock with no history.
func (s *Service) Summary(ctx context.Context, productID string) (domain.PriceSummary, error) {
	cur, obs, err := s.load(ctx, productID)
	if err != nil {
		return domain.PriceSummary{}, err
	}

	return Summarize(obs, cur, s.nowFunc()), nil
}

// Suggest classifies the product's summary into a buy suggestion.
func (s *Service) Suggest(ctx context.Context, productID string) (advisor.Suggestion, error) {
	summary, err := s.Summary(ctx, productID)
	if err != nil {
		return advisor.Suggestion{}, err
	}

	suggestion := advisor.Classify(summary, s.thresholds)
	metrics.SuggestionsTotal.WithLabelValues(string(suggestion.Category)).Inc()

	return suggestion, nil
}

// load fetches the catalog state and observation history. A missing
// product is not an error at this layer; it degrades to an out-of-stock
// current state with no observations.
func (s *Service) load(
	ctx context.Context,
	productID string,
) (CurrentState, []domain.PriceObservation, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Debug("product not in catalog, serving synthetic history", "product_id", productID)
		return CurrentState{Price: decimal.Zero, InStock: false}, nil, nil
	}
	if err != nil {
		return CurrentState{}, nil, fmt.Errorf("loading product %s: %w", productID, err)
	}

	obs, err := s.store.ListObservations(ctx, productID)
	if err != nil {
		return CurrentState{}, nil, fmt.Errorf("loading observations for %s: %w", productID, err)
	}

	return CurrentState{Price: product.CurrentPrice, InStock: product.InStock}, obs, nil
}
