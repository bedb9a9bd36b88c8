package client

import (
	"context"

	"github.com/ecwatch/pricewatch/pkg/advisor"
	domain "github.com/ecwatch/pricewatch/pkg/types"
)

// Chart returns the chart series for a product.
func (c *Client) Chart(ctx context.Context, productID string) (domain.ChartSeries, error) {
	var series domain.ChartSeries
	if err := c.get(ctx, "/api/v1/products/"+productID+"/chart", &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Summary returns the price summary for a product.
func (c *Client) Summary(ctx context.Context, productID string) (*domain.PriceSummary, error) {
	var s domain.PriceSummary
	if err := c.get(ctx, "/api/v1/products/"+productID+"/summary", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Suggestion returns the buy suggestion for a product.
func (c *Client) Suggestion(ctx context.Context, productID string) (*advisor.Suggestion, error) {
	var s advisor.Suggestion
	if err := c.get(ctx, "/api/v1/products/"+productID+"/suggestion", &s); err != nil {
		return nil, err
	}
	return &s, nil
}
