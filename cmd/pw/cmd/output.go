package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ecwatch/pricewatch/internal/tracking"
	"github.com/ecwatch/pricewatch/pkg/advisor"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printChartTable(series domain.ChartSeries) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("PERIOD\tHIGH\tLOW\n")
	for i := range series {
		tw.writef("%s\t$%s\t$%s\n",
			series[i].Label,
			series[i].Highest.StringFixed(2),
			series[i].Lowest.StringFixed(2),
		)
	}
	return tw.finish()
}

func printSummaryDetail(s *domain.PriceSummary) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Current Price:\t$%s\n", s.CurrentPrice.StringFixed(2))
	tw.writef("Lowest Ever:\t$%s\n", s.LowestEver.StringFixed(2))
	tw.writef("Highest Ever:\t$%s\n", s.HighestEver.StringFixed(2))
	tw.writef("Out of Stock:\t%v\n", s.OutOfStock)
	tw.writef("History Months:\t%d\n", s.HistoryMonths)
	return tw.finish()
}

func printSuggestionDetail(s *advisor.Suggestion) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Category:\t%s\n", s.Category)
	tw.writef("Discount:\t%s%%\n", s.DiscountPercent.StringFixed(1))
	return tw.finish()
}

func printFavoritesTable(states []domain.TrackingState) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("PRODUCT\tFAVORITE\tEMAIL\tPUSH\tSINCE\n")
	for i := range states {
		tw.writef("%s\t%v\t%v\t%v\t%s\n",
			states[i].ProductID,
			states[i].IsFavorite,
			states[i].EmailAlert,
			states[i].PushAlert,
			states[i].CreatedAt.Format("2006-01-02"),
		)
	}
	return tw.finish()
}

func printStatusDetail(st *tracking.Status) error {
	tw := newTabWriter(os.Stdout)
	if st.State != nil {
		tw.writef("Product:\t%s\n", st.State.ProductID)
		tw.writef("Favorite:\t%v\n", st.State.IsFavorite)
		tw.writef("Email Alert:\t%v\n", st.State.EmailAlert)
		tw.writef("Push Alert:\t%v\n", st.State.PushAlert)
	}
	tw.writef("Tracking Count:\t%d\n", st.TrackingCount)
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
