// Package api is the typed client for the Booksy REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"booksy/internal/model"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// ErrEmptyResponse is returned when a successful response carries no body.
var ErrEmptyResponse = errors.New("empty response body")

// Client defines the operations of the Booksy backend.
type Client interface {
	// Login exchanges credentials for a token.
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)

	// Register creates an account and returns its token.
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)

	// CurrentUser retrieves the account of userID.
	CurrentUser(ctx context.Context, userID string) (*model.User, error)

	// Books retrieves the whole catalogue.
	Books(ctx context.Context) ([]model.Book, error)

	// Book retrieves a single book by ID.
	Book(ctx context.Context, id string) (*model.Book, error)

	// BooksByCategory retrieves the books of one category.
	BooksByCategory(ctx context.Context, category string) ([]model.Book, error)

	// CartItems retrieves the cart lines of userID.
	CartItems(ctx context.Context, userID string) ([]model.CartItem, error)

	// AddToCart adds a line to the cart and returns it as persisted.
	AddToCart(ctx context.Context, item model.CartItem) (*model.CartItem, error)

	// UpdateCartItem changes the quantity of a cart line.
	UpdateCartItem(ctx context.Context, id string, quantity int) (*model.CartItem, error)

	// DeleteCartItem removes a cart line.
	DeleteCartItem(ctx context.Context, id string) error

	// CartTotal retrieves the server-computed totals of userID's cart.
	CartTotal(ctx context.Context, userID string) (*model.CartTotal, error)

	// ClearCart removes every line of userID's cart.
	ClearCart(ctx context.Context, userID string) error

	// CreateOrder submits an order.
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResponse, error)
}

// TokenFunc returns the bearer token to attach to requests, or "" for none.
type TokenFunc func(ctx context.Context) (string, error)

// Config holds the client settings.
type Config struct {
	// BaseURL is the backend root including the path prefix, e.g. "http://host/api/".
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
	RateBurst int
	UserAgent string
}

// httpClient implements Client over HTTP/JSON.
type httpClient struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	metrics  *Metrics
	sanitize *bluemonday.Policy
	logger   zerolog.Logger
}

// New creates a Booksy API client. metrics may be nil.
func New(cfg Config, tokens TokenFunc, metrics *Metrics, logger zerolog.Logger) Client {
	logger = logger.With().Str("component", "booksy-api").Logger()

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "booksy-cli"
	}

	var transport http.RoundTripper = otelhttp.NewTransport(http.DefaultTransport)
	transport = &loggingTransport{next: transport, logger: logger}
	transport = &headerTransport{
		next:      transport,
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		tokens:    tokens,
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &httpClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/") + "/",
		http:     &http.Client{Timeout: timeout, Transport: transport},
		limiter:  limiter,
		metrics:  metrics,
		sanitize: bluemonday.StrictPolicy(),
		logger:   logger,
	}
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
// op names the endpoint for metrics and logs.
func (c *httpClient) do(ctx context.Context, op, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", op, err)
		}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request body: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, method, "error", time.Since(start))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.observe(op, method, statusClass(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp)
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("failed to decode response")
		return fmt.Errorf("%s: invalid response body: %w", op, err)
	}

	return nil
}

// cleanBook strips markup from the free-text description.
func (c *httpClient) cleanBook(b *model.Book) {
	if b.Description == nil {
		return
	}
	clean := sanitizeText(c.sanitize, *b.Description)
	b.Description = &clean
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
