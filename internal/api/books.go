package api

import (
	"context"
	"net/http"
	"net/url"

	"booksy/internal/model"
)

// Books handles GET books.
func (c *httpClient) Books(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	if err := c.do(ctx, "books.list", http.MethodGet, "books", nil, &books); err != nil {
		return nil, err
	}
	for i := range books {
		c.cleanBook(&books[i])
	}
	return books, nil
}

// Book handles GET books/{id}.
func (c *httpClient) Book(ctx context.Context, id string) (*model.Book, error) {
	var book model.Book
	if err := c.do(ctx, "books.get", http.MethodGet, "books/"+url.PathEscape(id), nil, &book); err != nil {
		return nil, err
	}
	c.cleanBook(&book)
	return &book, nil
}

// BooksByCategory handles GET books/category/{category}.
func (c *httpClient) BooksByCategory(ctx context.Context, category string) ([]model.Book, error) {
	var books []model.Book
	if err := c.do(ctx, "books.category", http.MethodGet, "books/category/"+url.PathEscape(category), nil, &books); err != nil {
		return nil, err
	}
	for i := range books {
		c.cleanBook(&books[i])
	}
	return books, nil
}
