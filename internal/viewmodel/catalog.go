package viewmodel

import (
	"context"
	"sort"
	"strings"
	"sync"

	"booksy/internal/api"
	"booksy/internal/model"

	"github.com/rs/zerolog"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "all"

const msgLoadBooksFailed = "failed to load books"

// CatalogState is the observable state of the catalog screen.
type CatalogState struct {
	Status   Status       `json:"status"`
	Books    []model.Book `json:"books,omitempty"`
	Message  string       `json:"message,omitempty"`
	Query    string       `json:"query,omitempty"`
	Category string       `json:"category"`
}

// Catalog loads the book list once and filters it locally.
type Catalog struct {
	client api.Client
	logger zerolog.Logger
	state  *Observable[CatalogState]

	mu       sync.Mutex
	source   []model.Book
	loaded   bool
	query    string
	category string
}

// NewCatalog creates a catalog view-model in the Loading state.
func NewCatalog(client api.Client, logger zerolog.Logger) *Catalog {
	return &Catalog{
		client:   client,
		logger:   logger.With().Str("viewmodel", "catalog").Logger(),
		state:    NewObservable(CatalogState{Status: StatusLoading, Category: AllCategories}),
		category: AllCategories,
	}
}

// State returns the current state.
func (c *Catalog) State() CatalogState { return c.state.Get() }

// Watch follows state changes.
func (c *Catalog) Watch() (<-chan CatalogState, func()) { return c.state.Watch() }

// Load fetches the full catalogue and applies the current filters.
func (c *Catalog) Load(ctx context.Context) error {
	c.state.Update(func(s CatalogState) CatalogState {
		s.Status = StatusLoading
		s.Message = ""
		return s
	})

	books, err := c.client.Books(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to load books")

		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.Set(CatalogState{
			Status:   StatusError,
			Message:  failureMessage(err, msgLoadBooksFailed),
			Query:    c.query,
			Category: c.category,
		})
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = books
	c.loaded = true
	c.publish()

	c.logger.Debug().Int("count", len(books)).Msg("books loaded")
	return nil
}

// SetQuery changes the free-text filter. A blank query matches everything.
func (c *Catalog) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	c.publish()
}

// SetCategory changes the category filter. AllCategories or blank matches everything.
func (c *Catalog) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = category
	c.publish()
}

// Categories returns AllCategories followed by the distinct categories of
// the loaded catalogue in alphabetical order.
func (c *Catalog) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	var categories []string
	for _, b := range c.source {
		key := strings.ToLower(b.Category)
		if b.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		categories = append(categories, b.Category)
	}
	sort.Strings(categories)

	return append([]string{AllCategories}, categories...)
}

// publish emits the filtered list. Before a successful load only the
// filter values are recorded. Must be called with c.mu held.
func (c *Catalog) publish() {
	if !c.loaded {
		c.state.Update(func(s CatalogState) CatalogState {
			s.Query = c.query
			s.Category = c.category
			return s
		})
		return
	}

	c.state.Set(CatalogState{
		Status:   StatusSuccess,
		Books:    FilterBooks(c.source, c.query, c.category),
		Query:    c.query,
		Category: c.category,
	})
}

// FilterBooks returns the books whose title or author contains query
// (case-insensitive) and whose category equals category (case-insensitive).
// A blank query or the AllCategories sentinel disables the respective filter.
func FilterBooks(books []model.Book, query, category string) []model.Book {
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)
	anyCategory := category == "" || strings.EqualFold(category, AllCategories)

	filtered := make([]model.Book, 0, len(books))
	for _, b := range books {
		if query != "" &&
			!strings.Contains(strings.ToLower(b.Title), query) &&
			!strings.Contains(strings.ToLower(b.Author), query) {
			continue
		}
		if !anyCategory && !strings.EqualFold(b.Category, category) {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}
