package viewmodel

import (
	"context"
	"fmt"
	"net/http"

	"booksy/internal/api"
	"booksy/internal/model"

	"github.com/rs/zerolog"
)

const (
	msgLoadBookFailed = "failed to load book"
	msgBookNotFound   = "book not found"
)

// BookDetailState is the observable state of the book detail screen.
type BookDetailState struct {
	Status  Status      `json:"status"`
	Book    *model.Book `json:"book,omitempty"`
	Message string      `json:"message,omitempty"`
}

// BookDetail shows one book and adds it to the cart.
type BookDetail struct {
	client api.Client
	logger zerolog.Logger
	state  *Observable[BookDetailState]
}

// NewBookDetail creates a book detail view-model in the Loading state.
func NewBookDetail(client api.Client, logger zerolog.Logger) *BookDetail {
	return &BookDetail{
		client: client,
		logger: logger.With().Str("viewmodel", "book_detail").Logger(),
		state:  NewObservable(BookDetailState{Status: StatusLoading}),
	}
}

// State returns the current state.
func (d *BookDetail) State() BookDetailState { return d.state.Get() }

// Watch follows state changes.
func (d *BookDetail) Watch() (<-chan BookDetailState, func()) { return d.state.Watch() }

// Load fetches the book with the given ID.
func (d *BookDetail) Load(ctx context.Context, id string) error {
	d.state.Set(BookDetailState{Status: StatusLoading})

	book, err := d.client.Book(ctx, id)
	if err != nil {
		msg := failureMessage(err, msgLoadBookFailed)
		if api.StatusCode(err) == http.StatusNotFound {
			msg = msgBookNotFound
			err = fmt.Errorf("%w: %w", model.ErrBookNotFound, err)
		}
		d.logger.Warn().Err(err).Str("book_id", id).Msg("failed to load book")
		d.state.Set(BookDetailState{Status: StatusError, Message: msg})
		return err
	}

	d.state.Set(BookDetailState{Status: StatusSuccess, Book: book})
	return nil
}

// AddToCart adds one unit of the loaded book to userID's cart, snapshotting
// its current price.
func (d *BookDetail) AddToCart(ctx context.Context, userID string) (*model.CartItem, error) {
	if userID == "" {
		return nil, model.ErrNotLoggedIn
	}

	current := d.state.Get()
	if current.Status != StatusSuccess || current.Book == nil {
		return nil, model.ErrNoBookLoaded
	}

	item, err := d.client.AddToCart(ctx, model.CartItem{
		UserID:       userID,
		BookID:       current.Book.ID,
		Quantity:     1,
		PricePerUnit: current.Book.Price,
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("book_id", current.Book.ID).Msg("failed to add book to cart")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	d.logger.Debug().Str("book_id", current.Book.ID).Msg("book added to cart")
	return item, nil
}
