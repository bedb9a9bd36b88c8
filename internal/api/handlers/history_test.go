package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecwatch/pricewatch/internal/history"
	"github.com/ecwatch/pricewatch/internal/store"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

var histNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newHistoryHandler(t *testing.T) (*HistoryHandler, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	svc := history.NewService(st, history.WithNowFunc(func() time.Time { return histNow }))
	return NewHistoryHandler(svc), st
}

func seedHistory(t *testing.T, st *store.MemoryStore) {
	t.Helper()

	require.NoError(t, st.UpsertProduct(context.Background(), &domain.Product{
		ID:           "p1",
		Title:        "Espresso Machine",
		CurrentPrice: decimal.NewFromInt(420),
		InStock:      true,
	}))

	days := []struct {
		month time.Month
		day   int
		price int64
	}{
		{time.December, 5, 600},
		{time.January, 10, 500},
		{time.February, 20, 450},
		{time.March, 10, 420},
	}
	for _, d := range days {
		year := 2026
		if d.month == time.December {
			year = 2025
		}
		require.NoError(t, st.RecordObservation(context.Background(), &domain.PriceObservation{
			ProductID:  "p1",
			ObservedOn: time.Date(year, d.month, d.day, 0, 0, 0, 0, time.UTC),
			Price:      decimal.NewFromInt(d.price),
			InStock:    true,
		}))
	}
}

func getRequest(t *testing.T, h echo.HandlerFunc, path, productID string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(productID)

	require.NoError(t, h(c))
	return rec
}

func TestHistoryHandler_Chart(t *testing.T) {
	t.Parallel()

	h, st := newHistoryHandler(t)
	seedHistory(t, st)

	rec := getRequest(t, h.Chart, "/api/v1/products/p1/chart", "p1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var series domain.ChartSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))

	// Three monthly buckets and one live daily point.
	require.Len(t, series, 4)
	assert.Equal(t, "Dec 2025", series[0].Label)
	assert.Equal(t, "Mar 10", series[3].Label)
}

func TestHistoryHandler_Chart_UnknownProduct(t *testing.T) {
	t.Parallel()

	h, _ := newHistoryHandler(t)

	rec := getRequest(t, h.Chart, "/api/v1/products/ghost/chart", "ghost")
	assert.Equal(t, http.StatusOK, rec.Code)

	var series domain.ChartSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 1, "unknown products still chart a synthetic point")
}

func TestHistoryHandler_Summary(t *testing.T) {
	t.Parallel()

	h, st := newHistoryHandler(t)
	seedHistory(t, st)

	rec := getRequest(t, h.Summary, "/api/v1/products/p1/summary", "p1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var s domain.PriceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))

	assert.True(t, s.CurrentPrice.Equal(decimal.NewFromInt(420)))
	assert.True(t, s.LowestEver.Equal(decimal.NewFromInt(420)))
	assert.True(t, s.HighestEver.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 4, s.HistoryMonths)
}

func TestHistoryHandler_Suggestion(t *testing.T) {
	t.Parallel()

	h, st := newHistoryHandler(t)
	seedHistory(t, st)

	rec := getRequest(t, h.Suggestion, "/api/v1/products/p1/suggestion", "p1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Category        string          `json:"category"`
		DiscountPercent decimal.Decimal `json:"discount_percent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// Range [420, 600], current 420: a 100% discount position.
	assert.Equal(t, "buy_now", body.Category)
	assert.True(t, body.DiscountPercent.Equal(decimal.NewFromInt(100)))
}
