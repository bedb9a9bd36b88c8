// Package advisor classifies a price summary into a buy suggestion.
// Classify is a pure function: the same summary and thresholds always
// produce the same suggestion.
package advisor

import (
	"github.com/shopspring/decimal"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// Category is the buy suggestion bucket.
type Category string

// Suggestion categories, in precedence order.
const (
	CategoryOutOfStock          Category = "out_of_stock"
	CategoryInsufficientHistory Category = "insufficient_history"
	CategoryDoNotBuy            Category = "do_not_buy"
	CategoryNeutral             Category = "neutral"
	CategoryBuyNow              Category = "buy_now"
)

// Thresholds defines the classification boundaries.
type Thresholds struct {
	// MinHistoryMonths is the number of distinct observed months required
	// before the discount rule applies.
	MinHistoryMonths int
	// DoNotBuyMaxPercent is the inclusive upper bound of the do_not_buy band.
	DoNotBuyMaxPercent float64
	// NeutralMaxPercent is the inclusive upper bound of the neutral band;
	// anything above it is buy_now.
	NeutralMaxPercent float64
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHistoryMonths:   3,
		DoNotBuyMaxPercent: 20,
		NeutralMaxPercent:  60,
	}
}

// Suggestion is the classification result. DiscountPercent is only
// meaningful for the discount-based categories and is zero otherwise.
type Suggestion struct {
	Category        Category        `json:"category"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

var hundred = decimal.NewFromInt(100)

// Classify maps a price summary to a suggestion.
//
// Out-of-stock wins over everything. Products with fewer observed months
// than MinHistoryMonths are insufficient_history. Otherwise the discount
// percent is the position of the current price within the historical
// [lowest, highest] range, inverted so that higher means cheaper:
//
//	(highest - current) / max(highest - lowest, 1) * 100
//
// The max(...,1) divisor guards division by zero when highest equals
// lowest; it also means discounts can exceed 100% when the current price
// drops below the historical low. That is intentional: values above the
// neutral band are simply buy_now.
func Classify(s domain.PriceSummary, th Thresholds) Suggestion {
	if s.OutOfStock {
		return Suggestion{Category: CategoryOutOfStock}
	}

	if s.HistoryMonths < th.MinHistoryMonths {
		return Suggestion{Category: CategoryInsufficientHistory}
	}

	discount := DiscountPercent(s)

	switch {
	case discount.LessThanOrEqual(decimal.NewFromFloat(th.DoNotBuyMaxPercent)):
		return Suggestion{Category: CategoryDoNotBuy, DiscountPercent: discount}
	case discount.LessThanOrEqual(decimal.NewFromFloat(th.NeutralMaxPercent)):
		return Suggestion{Category: CategoryNeutral, DiscountPercent: discount}
	default:
		return Suggestion{Category: CategoryBuyNow, DiscountPercent: discount}
	}
}

// DiscountPercent computes the normalized discount position of the
// current price within the historical price range.
func DiscountPercent(s domain.PriceSummary) decimal.Decimal {
	spread := s.HighestEver.Sub(s.LowestEver)
	if spread.LessThan(decimal.NewFromInt(1)) {
		spread = decimal.NewFromInt(1)
	}
	return s.HighestEver.Sub(s.CurrentPrice).Div(spread).Mul(hundred)
}
