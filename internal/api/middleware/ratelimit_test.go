package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_AllowsWithinBudget(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.PUT("/api/v1/users/:user_id/favorites/:product_id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(10, 5))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice/favorites/p1", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.PUT("/api/v1/users/:user_id/favorites/:product_id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(0.001, 2))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice/favorites/p1", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	require.Equal(t, http.StatusTooManyRequests, statuses[2])
}

func TestRateLimit_IsolatesClients(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.PUT("/api/v1/users/:user_id/favorites/:product_id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(0.001, 1))

	// Exhaust alice's bucket.
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice/favorites/p1", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/users/alice/favorites/p1", http.NoBody)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Bob still has a full bucket.
	req = httptest.NewRequest(http.MethodPut, "/api/v1/users/bob/favorites/p1", http.NoBody)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
