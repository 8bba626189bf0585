package viewmodel

import (
	"context"
	"sync"

	"booksy/internal/api"
	"booksy/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	msgLoadCartFailed   = "failed to load cart"
	msgRemoveItemFailed = "failed to remove item"
	msgClearCartFailed  = "failed to clear cart"
)

// CartState is the observable state of the cart screen. Total is exactly
// what the server computed.
type CartState struct {
	Status  Status           `json:"status"`
	Items   []model.CartItem `json:"items,omitempty"`
	Total   *model.CartTotal `json:"total,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Cart shows a user's cart and mutates it through the backend.
type Cart struct {
	client api.Client
	logger zerolog.Logger
	state  *Observable[CartState]

	// serialises mutate-then-reload sequences
	mu sync.Mutex
}

// NewCart creates a cart view-model in the Loading state.
func NewCart(client api.Client, logger zerolog.Logger) *Cart {
	return &Cart{
		client: client,
		logger: logger.With().Str("viewmodel", "cart").Logger(),
		state:  NewObservable(CartState{Status: StatusLoading}),
	}
}

// State returns the current state.
func (c *Cart) State() CartState { return c.state.Get() }

// Watch follows state changes.
func (c *Cart) Watch() (<-chan CartState, func()) { return c.state.Watch() }

// Load fetches items and total concurrently. The state becomes Success
// only if both succeed.
func (c *Cart) Load(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, userID)
}

func (c *Cart) load(ctx context.Context, userID string) error {
	c.state.Set(CartState{Status: StatusLoading})

	var (
		items []model.CartItem
		total *model.CartTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.client.CartItems(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.client.CartTotal(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load cart")
		c.state.Set(CartState{Status: StatusError, Message: failureMessage(err, msgLoadCartFailed)})
		return err
	}

	c.state.Set(CartState{Status: StatusSuccess, Items: items, Total: total})
	return nil
}

// Remove deletes a cart line and reloads. A nil itemID (a line the server
// never persisted) is ignored. A non-2xx answer is logged and the cart is
// reloaded anyway; only a transport failure leaves the state in Error.
func (c *Cart) Remove(ctx context.Context, itemID *string, userID string) error {
	if itemID == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.DeleteCartItem(ctx, *itemID); err != nil {
		c.logger.Warn().Err(err).Str("item_id", *itemID).Msg("failed to remove cart item")
		if api.StatusCode(err) == 0 {
			c.state.Set(CartState{Status: StatusError, Message: failureMessage(err, msgRemoveItemFailed)})
			return err
		}
	}

	return c.load(ctx, userID)
}

// Clear empties userID's cart and reloads, with the same failure rules as
// Remove.
func (c *Cart) Clear(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.ClearCart(ctx, userID); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to clear cart")
		if api.StatusCode(err) == 0 {
			c.state.Set(CartState{Status: StatusError, Message: failureMessage(err, msgClearCartFailed)})
			return err
		}
	}

	return c.load(ctx, userID)
}
