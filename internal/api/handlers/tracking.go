package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecwatch/pricewatch/internal/store"
	"github.com/ecwatch/pricewatch/internal/tracking"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// TrackingHandler handles favorite and alert operations for users.
type TrackingHandler struct {
	store   store.Store
	manager *tracking.Manager
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(s store.Store, m *tracking.Manager) *TrackingHandler {
	return &TrackingHandler{store: s, manager: m}
}

// AddFavorite handles PUT /api/v1/users/:user_id/favorites/:product_id.
// The product must exist in the catalog before it can be favorited.
func (h *TrackingHandler) AddFavorite(c echo.Context) error {
	userID := c.Param("user_id")
	productID := c.Param("product_id")

	if _, err := h.store.GetProduct(c.Request().Context(), productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "loading product: " + err.Error()})
	}

	status, err := h.manager.AddFavorite(c.Request().Context(), userID, productID)
	if err != nil {
		return trackingError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// RemoveFavorite handles DELETE /api/v1/users/:user_id/favorites/:product_id.
// Removal is rejected while any alert channel remains enabled.
func (h *TrackingHandler) RemoveFavorite(c echo.Context) error {
	userID := c.Param("user_id")
	productID := c.Param("product_id")

	status, err := h.manager.RemoveFavorite(c.Request().Context(), userID, productID)
	if err != nil {
		return trackingError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

type setAlertRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAlert handles PUT /api/v1/users/:user_id/favorites/:product_id/alerts/:channel.
func (h *TrackingHandler) SetAlert(c echo.Context) error {
	userID := c.Param("user_id")
	productID := c.Param("product_id")

	ch, err := domain.ParseChannel(c.Param("channel"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	var req setAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
	}

	status, err := h.manager.SetAlert(c.Request().Context(), userID, productID, ch, req.Enabled)
	if err != nil {
		return trackingError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// ListFavorites handles GET /api/v1/users/:user_id/favorites.
func (h *TrackingHandler) ListFavorites(c echo.Context) error {
	userID := c.Param("user_id")

	states, err := h.store.ListUserTracking(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "listing favorites: " + err.Error()})
	}

	if states == nil {
		states = []domain.TrackingState{}
	}

	return c.JSON(http.StatusOK, states)
}

// trackingError maps manager errors onto HTTP responses.
func trackingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, tracking.ErrLimitExceeded):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "favorite limit reached"})
	case errors.Is(err, tracking.ErrAlertsActive):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "disable alerts before removing favorite"})
	case errors.Is(err, tracking.ErrNotFavorited):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "product is not favorited"})
	case errors.Is(err, tracking.ErrTransient):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporary conflict, please retry"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
