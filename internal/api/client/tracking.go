package client

import (
	"context"
	"fmt"

	"github.com/ecwatch/pricewatch/internal/tracking"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// AddFavorite marks a product as a favorite for a user.
func (c *Client) AddFavorite(ctx context.Context, userID, productID string) (*tracking.Status, error) {
	var status tracking.Status
	path := fmt.Sprintf("/api/v1/users/%s/favorites/%s", userID, productID)
	if err := c.put(ctx, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RemoveFavorite removes a product from a user's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, userID, productID string) (*tracking.Status, error) {
	var status tracking.Status
	path := fmt.Sprintf("/api/v1/users/%s/favorites/%s", userID, productID)
	if err := c.del(ctx, path, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetAlert enables or disables a price alert channel for a favorite.
func (c *Client) SetAlert(
	ctx context.Context,
	userID, productID string,
	ch domain.Channel,
	enabled bool,
) (*tracking.Status, error) {
	var status tracking.Status
	path := fmt.Sprintf("/api/v1/users/%s/favorites/%s/alerts/%s", userID, productID, ch)
	body := map[string]bool{"enabled": enabled}
	if err := c.put(ctx, path, body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListFavorites returns a user's tracking state for all favorited products.
func (c *Client) ListFavorites(ctx context.Context, userID string) ([]domain.TrackingState, error) {
	var states []domain.TrackingState
	if err := c.get(ctx, "/api/v1/users/"+userID+"/favorites", &states); err != nil {
		return nil, err
	}
	return states, nil
}
