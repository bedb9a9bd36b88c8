// Package history turns raw price observations into chart-ready series
// and price summaries.
package history

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// MaxTrailingMonths caps the number of historical monthly buckets in a
// chart series. The current month is charted day by day on top of these.
const MaxTrailingMonths = 23

// Chart point label layouts.
const (
	monthLabelLayout = "Jan 2006"
	dayLabelLayout   = "Jan 2"
)

// CurrentState is the catalog's view of the product right now.
type CurrentState struct {
	Price   decimal.Decimal
	InStock bool
}

// BuildSeries converts a product's observations into a chart series:
// up to MaxTrailingMonths monthly high/low buckets in chronological
// order, followed by one point per observed day of the current month.
//
// If the product is out of stock right now, today's point (and only
// today's) is forced to zero regardless of the last known price. A
// current month without observations gets a single synthesized "today"
// point so the chart always has something to draw.
func BuildSeries(
	obs []domain.PriceObservation,
	cur CurrentState,
	now time.Time,
) domain.ChartSeries {
	parts := partition(obs, now)

	series := make(domain.ChartSeries, 0, len(parts.months)+len(parts.live)+1)
	for _, m := range parts.months {
		series = append(series, domain.ChartPoint{
			Label:   m.label,
			Highest: m.highest,
			Lowest:  m.lowest,
		})
	}

	today := dateOf(now)
	todayLabel := today.Format(dayLabelLayout)

	for _, o := range parts.live {
		price := o.Price
		if !cur.InStock && sameDate(o.ObservedOn, today) {
			// Unavailable right now: zero out today without touching
			// the recorded observation.
			price = decimal.Zero
		}
		series = append(series, domain.ChartPoint{
			Label:   dateOf(o.ObservedOn).Format(dayLabelLayout),
			Highest: price,
			Lowest:  price,
		})
	}

	needToday := len(parts.live) == 0 ||
		(!cur.InStock && !sameDate(parts.live[len(parts.live)-1].ObservedOn, today))
	if needToday {
		price := decimal.Zero
		if cur.InStock && len(parts.live) == 0 {
			price = cur.Price
		}
		series = append(series, domain.ChartPoint{
			Label:   todayLabel,
			Highest: price,
			Lowest:  price,
		})
	}

	return series
}

// Summarize derives the price summary driving buy suggestions.
//
// CurrentPrice is zero while out of stock. LowestEver/HighestEver span
// every in-stock observation, historical and current month alike; the
// out-of-stock zero sentinel never participates. HistoryMonths counts
// distinct calendar months holding at least one in-stock observation,
// the current month included.
func Summarize(
	obs []domain.PriceObservation,
	cur CurrentState,
	now time.Time,
) domain.PriceSummary {
	parts := partition(obs, now)

	summary := domain.PriceSummary{
		OutOfStock:    !cur.InStock,
		HistoryMonths: parts.historyMonths,
	}

	if cur.InStock {
		switch {
		case cur.Price.IsPositive():
			summary.CurrentPrice = cur.Price
		case parts.hasPrices:
			summary.CurrentPrice = parts.lastPrice
		}
	}

	if parts.hasPrices {
		summary.LowestEver = parts.lowest
		summary.HighestEver = parts.highest
	} else if cur.InStock {
		// Nothing observed yet: the catalog price is all we know.
		summary.LowestEver = cur.Price
		summary.HighestEver = cur.Price
	}

	return summary
}

// monthBucket is one reduced historical month.
type monthBucket struct {
	key     int // year*12 + month
	label   string
	highest decimal.Decimal
	lowest  decimal.Decimal
}

// partitions is the shared month/day decomposition of an observation set.
type partitions struct {
	months []monthBucket             // historical, ascending, at most MaxTrailingMonths
	live   []domain.PriceObservation // current month, chronological, as recorded

	historyMonths int
	hasPrices     bool
	lowest        decimal.Decimal
	highest       decimal.Decimal
	lastPrice     decimal.Decimal
}

// partition splits observations into historical monthly buckets and the
// current month. Out-of-stock sentinel observations stay in the live
// day list (they chart as recorded) but never contribute to bucket
// high/low values, the all-time range, or the month count.
func partition(obs []domain.PriceObservation, now time.Time) partitions {
	liveKey := monthKeyOf(now)
	buckets := make(map[int]*monthBucket)
	seenMonths := make(map[int]struct{})

	var p partitions

	for _, o := range obs {
		key := monthKeyOf(o.ObservedOn)

		if key == liveKey {
			p.live = append(p.live, o)
		}

		if !o.InStock {
			continue
		}

		seenMonths[key] = struct{}{}

		if !p.hasPrices || o.Price.LessThan(p.lowest) {
			p.lowest = o.Price
		}
		if !p.hasPrices || o.Price.GreaterThan(p.highest) {
			p.highest = o.Price
		}
		p.lastPrice = o.Price
		p.hasPrices = true

		if key == liveKey {
			continue
		}

		b, ok := buckets[key]
		if !ok {
			buckets[key] = &monthBucket{
				key:     key,
				label:   dateOf(o.ObservedOn).Format(monthLabelLayout),
				highest: o.Price,
				lowest:  o.Price,
			}
			continue
		}
		if o.Price.GreaterThan(b.highest) {
			b.highest = o.Price
		}
		if o.Price.LessThan(b.lowest) {
			b.lowest = o.Price
		}
	}

	p.historyMonths = len(seenMonths)

	p.months = make([]monthBucket, 0, len(buckets))
	for _, b := range buckets {
		p.months = append(p.months, *b)
	}
	sort.Slice(p.months, func(i, j int) bool {
		return p.months[i].key < p.months[j].key
	})
	// The most recent months win the window; order stays chronological.
	if len(p.months) > MaxTrailingMonths {
		p.months = p.months[len(p.months)-MaxTrailingMonths:]
	}

	return p
}

func monthKeyOf(t time.Time) int {
	y, m, _ := t.UTC().Date()
	return y*12 + int(m)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return dateOf(a).Equal(dateOf(b))
}
