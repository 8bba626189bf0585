package model

// CartItem represents a line in the server-side cart.
// ID is nil until the server has persisted the item. PricePerUnit is the
// book price at the time the item was added and is never updated.
type CartItem struct {
	ID           *string `json:"_id,omitempty"`
	UserID       string  `json:"userId"`
	BookID       string  `json:"bookId"`
	Quantity     int     `json:"quantity"`
	PricePerUnit float64 `json:"pricePerUnit"`
}

// CartTotal is the server-computed aggregate for a user's cart.
type CartTotal struct {
	Subtotal   float64 `json:"subtotal"`
	Commission float64 `json:"commission"`
	Total      float64 `json:"total"`
}

// UpdateQuantityRequest represents the request payload for PUT /api/cart/{id}.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}
