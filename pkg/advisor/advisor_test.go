package advisor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

func summary(current, lowest, highest float64, months int) domain.PriceSummary {
	return domain.PriceSummary{
		CurrentPrice:  decimal.NewFromFloat(current),
		LowestEver:    decimal.NewFromFloat(lowest),
		HighestEver:   decimal.NewFromFloat(highest),
		HistoryMonths: months,
	}
}

func TestClassify_OutOfStockWins(t *testing.T) {
	t.Parallel()

	// A deep discount and long history are both irrelevant while the
	// product cannot be bought.
	s := summary(100, 100, 1000, 12)
	s.OutOfStock = true

	got := Classify(s, DefaultThresholds())
	assert.Equal(t, CategoryOutOfStock, got.Category)
	assert.True(t, got.DiscountPercent.IsZero())
}

func TestClassify_HistoryBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		months int
		want   Category
	}{
		{name: "no history", months: 0, want: CategoryInsufficientHistory},
		{name: "two months is not enough", months: 2, want: CategoryInsufficientHistory},
		{name: "three months is evaluated", months: 3, want: CategoryNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// 50% discount position, squarely in the neutral band.
			s := summary(500, 0, 1000, tt.months)
			got := Classify(s, DefaultThresholds())
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestClassify_DiscountBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current float64
		want    Category
	}{
		{name: "no discount", current: 1000, want: CategoryDoNotBuy},
		{name: "exactly 20 stays do_not_buy", current: 800, want: CategoryDoNotBuy},
		{name: "just past 20 is neutral", current: 799, want: CategoryNeutral},
		{name: "exactly 60 stays neutral", current: 400, want: CategoryNeutral},
		{name: "just past 60 is buy_now", current: 399, want: CategoryBuyNow},
		{name: "at the historical low", current: 0, want: CategoryBuyNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Range [0, 1000] makes discount percent == (1000-current)/10.
			s := summary(tt.current, 0, 1000, 6)
			got := Classify(s, DefaultThresholds())
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestDiscountPercent_BelowHistoricalLow(t *testing.T) {
	t.Parallel()

	// Current price below the recorded low pushes the discount past 100%;
	// the classifier treats that as an even stronger buy_now.
	s := summary(500, 800, 1100, 6)

	discount := DiscountPercent(s)
	assert.True(t, discount.Equal(decimal.NewFromInt(200)),
		"expected 200%%, got %s", discount)

	got := Classify(s, DefaultThresholds())
	assert.Equal(t, CategoryBuyNow, got.Category)
}

func TestDiscountPercent_FlatHistory(t *testing.T) {
	t.Parallel()

	// Highest == lowest would divide by zero; the divisor floors at 1.
	s := summary(100, 100, 100, 6)

	discount := DiscountPercent(s)
	assert.True(t, discount.IsZero(), "flat history should yield zero discount")

	got := Classify(s, DefaultThresholds())
	assert.Equal(t, CategoryDoNotBuy, got.Category)
}

func TestClassify_CustomThresholds(t *testing.T) {
	t.Parallel()

	th := Thresholds{MinHistoryMonths: 1, DoNotBuyMaxPercent: 50, NeutralMaxPercent: 90}

	s := summary(400, 0, 1000, 1)
	got := Classify(s, th)
	assert.Equal(t, CategoryNeutral, got.Category)
}
