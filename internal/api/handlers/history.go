package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecwatch/pricewatch/internal/history"
)

// HistoryHandler serves price history charts, summaries, and buy suggestions.
type HistoryHandler struct {
	svc *history.Service
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc *history.Service) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// Chart handles GET /api/v1/products/:id/chart. Unknown products get a
// synthetic single-point series rather than an error; the chart always
// renders.
func (h *HistoryHandler) Chart(c echo.Context) error {
	id := c.Param("id")

	series, err := h.svc.ChartSeries(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "building chart: " + err.Error()})
	}

	return c.JSON(http.StatusOK, series)
}

// Summary handles GET /api/v1/products/:id/summary.
func (h *HistoryHandler) Summary(c echo.Context) error {
	id := c.Param("id")

	summary, err := h.svc.Summary(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "building summary: " + err.Error()})
	}

	return c.JSON(http.StatusOK, summary)
}

// Suggestion handles GET /api/v1/products/:id/suggestion.
func (h *HistoryHandler) Suggestion(c echo.Context) error {
	id := c.Param("id")

	suggestion, err := h.svc.Suggest(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "classifying suggestion: " + err.Error()})
	}

	return c.JSON(http.StatusOK, suggestion)
}
