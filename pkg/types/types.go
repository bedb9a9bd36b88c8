// Package domain defines the core business types for pricewatch.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies an alert delivery channel.
type Channel string

// Alert channel constants. These are the only valid channels; anything
// else is rejected by ParseChannel.
const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// ParseChannel converts a string to a Channel, rejecting unknown values.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelPush:
		return ChannelPush, nil
	default:
		return "", fmt.Errorf("unknown alert channel %q", s)
	}
}

// Product is the catalog view of a tracked product. TrackingCount is
// denormalized: it must always equal the number of tracking records for
// this product with at least one alert channel enabled.
type Product struct {
	ID            string          `json:"id"             db:"id"`
	Title         string          `json:"title"          db:"title"`
	CurrentPrice  decimal.Decimal `json:"current_price"  db:"current_price"`
	InStock       bool            `json:"in_stock"       db:"in_stock"`
	TrackingCount int             `json:"tracking_count" db:"tracking_count"`
	CreatedAt     time.Time       `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"     db:"updated_at"`
}

// PriceObservation is a single day-granular price sample for a product.
// Observations are immutable once recorded; there is at most one per
// product per calendar day. Out-of-stock days carry InStock=false and a
// zero price sentinel.
type PriceObservation struct {
	ProductID  string          `json:"product_id"  db:"product_id"`
	ObservedOn time.Time       `json:"observed_on" db:"observed_on"`
	Price      decimal.Decimal `json:"price"       db:"price"`
	InStock    bool            `json:"in_stock"    db:"in_stock"`
}

// MonthlyAggregate is the high/low reduction of one calendar month of
// observations. Lowest <= Highest for any month with at least one
// in-stock observation.
type MonthlyAggregate struct {
	Month   string          `json:"month"` // YYYY-MM
	Highest decimal.Decimal `json:"highest"`
	Lowest  decimal.Decimal `json:"lowest"`
}

// ChartPoint is one labeled point of a chart series. Monthly points have
// distinct highest/lowest; daily points carry the observed price in both.
type ChartPoint struct {
	Label   string          `json:"label"`
	Highest decimal.Decimal `json:"highest"`
	Lowest  decimal.Decimal `json:"lowest"`
}

// ChartSeries is a chronological sequence of chart points: up to 23
// trailing monthly points followed by the current month's daily points.
type ChartSeries []ChartPoint

// PriceSummary is the derived snapshot that drives buy suggestions.
type PriceSummary struct {
	CurrentPrice  decimal.Decimal `json:"current_price"`
	LowestEver    decimal.Decimal `json:"lowest_price_ever"`
	HighestEver   decimal.Decimal `json:"highest_price_ever"`
	OutOfStock    bool            `json:"is_out_of_stock"`
	HistoryMonths int             `json:"distinct_history_months"`
}

// TrackingState is the per-(user, product) favorite/alert record. The
// record exists only while the product is favorited; alert flags flip
// independently after creation.
type TrackingState struct {
	UserID     string    `json:"user_id"     db:"user_id"`
	ProductID  string    `json:"product_id"  db:"product_id"`
	IsFavorite bool      `json:"is_favorite" db:"is_favorite"`
	EmailAlert bool      `json:"email_alert" db:"email_alert"`
	PushAlert  bool      `json:"push_alert"  db:"push_alert"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// Tracking reports whether any alert channel is enabled. Only tracking
// records count toward Product.TrackingCount.
func (t *TrackingState) Tracking() bool {
	return t.EmailAlert || t.PushAlert
}

// AlertEnabled returns the flag for the given channel.
func (t *TrackingState) AlertEnabled(ch Channel) bool {
	if ch == ChannelEmail {
		return t.EmailAlert
	}
	return t.PushAlert
}

// SetAlertFlag flips the flag for the given channel.
func (t *TrackingState) SetAlertFlag(ch Channel, enabled bool) {
	if ch == ChannelEmail {
		t.EmailAlert = enabled
		return
	}
	t.PushAlert = enabled
}
