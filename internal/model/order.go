package model

// OrderStatusCompleted is the status the backend assigns to paid orders.
const OrderStatusCompleted = "completed"

// Order represents a submitted order.
type Order struct {
	ID           *string      `json:"_id,omitempty"`
	UserID       string       `json:"userId"`
	Items        []OrderItem  `json:"items"`
	Total        float64      `json:"total"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	Status       string       `json:"status"`
	CreatedAt    *string      `json:"createdAt,omitempty"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	BookID   string  `json:"bookId"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ShippingInfo holds the delivery details captured at checkout.
type ShippingInfo struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Region    string   `json:"region"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	UserID       string       `json:"userId"`
	Items        []OrderItem  `json:"items"`
	Total        float64      `json:"total"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
}

// OrderResponse represents the response payload for an order submission.
type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order,omitempty"`
}
