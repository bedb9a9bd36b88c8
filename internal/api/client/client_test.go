package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecwatch/pricewatch/internal/tracking"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListFavorites(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"favorite limit reached"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.AddFavorite(context.Background(), "alice", "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 409)")
	assert.Contains(t, err.Error(), "favorite limit reached")
}

func TestClient_Chart(t *testing.T) {
	t.Parallel()

	series := domain.ChartSeries{
		{Label: "Jan 2026", Highest: decimal.NewFromInt(120), Lowest: decimal.NewFromInt(90)},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/p1/chart", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(series)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Chart(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Jan 2026", result[0].Label)
	assert.True(t, result[0].Highest.Equal(decimal.NewFromInt(120)))
}

func TestClient_Summary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/p1/summary", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.PriceSummary{
			CurrentPrice:  decimal.NewFromInt(420),
			LowestEver:    decimal.NewFromInt(420),
			HighestEver:   decimal.NewFromInt(600),
			HistoryMonths: 4,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	s, err := c.Summary(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, s.HistoryMonths)
	assert.True(t, s.HighestEver.Equal(decimal.NewFromInt(600)))
}

func TestClient_SetAlert(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/users/alice/favorites/p1/alerts/email", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["enabled"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tracking.Status{TrackingCount: 1})
	}))
	defer srv.Close()

	c := New(srv.URL)
	status, err := c.SetAlert(context.Background(), "alice", "p1", domain.ChannelEmail, true)
	require.NoError(t, err)
	assert.Equal(t, 1, status.TrackingCount)
}

func TestClient_RemoveFavorite(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/users/alice/favorites/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tracking.Status{TrackingCount: 0})
	}))
	defer srv.Close()

	c := New(srv.URL)
	status, err := c.RemoveFavorite(context.Background(), "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, status.TrackingCount)
}
