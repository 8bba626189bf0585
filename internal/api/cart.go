package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"booksy/internal/model"
)

// CartItems handles GET cart/user/{userId}. An empty body is an empty cart.
func (c *httpClient) CartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	var items []model.CartItem
	err := c.do(ctx, "cart.items", http.MethodGet, "cart/user/"+url.PathEscape(userID), nil, &items)
	if errors.Is(err, ErrEmptyResponse) {
		return []model.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart handles POST cart.
func (c *httpClient) AddToCart(ctx context.Context, item model.CartItem) (*model.CartItem, error) {
	if item.Quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	var created model.CartItem
	if err := c.do(ctx, "cart.add", http.MethodPost, "cart", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCartItem handles PUT cart/{id}.
func (c *httpClient) UpdateCartItem(ctx context.Context, id string, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	var updated model.CartItem
	req := model.UpdateQuantityRequest{Quantity: quantity}
	if err := c.do(ctx, "cart.update", http.MethodPut, "cart/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCartItem handles DELETE cart/{id}.
func (c *httpClient) DeleteCartItem(ctx context.Context, id string) error {
	return c.do(ctx, "cart.delete", http.MethodDelete, "cart/"+url.PathEscape(id), nil, nil)
}

// CartTotal handles GET cart/total/{userId}. An empty body is an all-zero total.
func (c *httpClient) CartTotal(ctx context.Context, userID string) (*model.CartTotal, error) {
	var total model.CartTotal
	err := c.do(ctx, "cart.total", http.MethodGet, "cart/total/"+url.PathEscape(userID), nil, &total)
	if err != nil && !errors.Is(err, ErrEmptyResponse) {
		return nil, err
	}
	return &total, nil
}

// ClearCart handles DELETE cart/clear/{userId}.
func (c *httpClient) ClearCart(ctx context.Context, userID string) error {
	return c.do(ctx, "cart.clear", http.MethodDelete, "cart/clear/"+url.PathEscape(userID), nil, nil)
}
