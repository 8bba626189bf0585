package api

import (
	"context"
	"net/http"

	"booksy/internal/model"
)

// CreateOrder handles POST orders.
func (c *httpClient) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResponse, error) {
	var resp model.OrderResponse
	if err := c.do(ctx, "orders.create", http.MethodPost, "orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
