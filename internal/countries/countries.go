// Package countries fetches country metadata from the REST Countries API.
package countries

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"booksy/internal/model"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the public REST Countries endpoint.
const DefaultBaseURL = "https://restcountries.com/"

// maxBody caps the size of a decoded response.
const maxBody = 1 << 20

// Client queries REST Countries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New creates a REST Countries client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With().Str("component", "countries").Logger(),
	}
}

// ByName returns the first country matching name.
func (c *Client) ByName(ctx context.Context, name string) (*model.Country, error) {
	return c.fetch(ctx, "v3.1/name/"+url.PathEscape(name))
}

// ByCode returns the country with the given ISO 3166 alpha code.
func (c *Client) ByCode(ctx context.Context, code string) (*model.Country, error) {
	return c.fetch(ctx, "v3.1/alpha/"+url.PathEscape(code))
}

func (c *Client) fetch(ctx context.Context, path string) (*model.Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch country: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.ErrCountryNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch country: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read country response: %w", err)
	}

	country, err := Parse(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("path", path).Str("country", country.CommonName).Msg("country fetched")
	return country, nil
}

// Parse decodes a REST Countries v3.1 response. The API answers with an
// array; only the first element is used. A bare object is accepted too.
func Parse(data []byte) (*model.Country, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid country response")
	}

	doc := gjson.ParseBytes(data)
	if doc.IsArray() {
		doc = doc.Get("0")
	}
	if !doc.IsObject() {
		return nil, model.ErrCountryNotFound
	}

	country := &model.Country{
		CommonName:   doc.Get("name.common").String(),
		OfficialName: doc.Get("name.official").String(),
		Region:       doc.Get("region").String(),
		Subregion:    doc.Get("subregion").String(),
		Flag:         doc.Get("flag").String(),
	}

	for _, capital := range doc.Get("capital").Array() {
		country.Capital = append(country.Capital, capital.String())
	}

	doc.Get("currencies").ForEach(func(code, currency gjson.Result) bool {
		country.Currencies = append(country.Currencies, model.Currency{
			Code:   code.String(),
			Name:   currency.Get("name").String(),
			Symbol: currency.Get("symbol").String(),
		})
		return true
	})
	sort.Slice(country.Currencies, func(i, j int) bool {
		return country.Currencies[i].Code < country.Currencies[j].Code
	})

	if country.CommonName == "" {
		return nil, model.ErrCountryNotFound
	}

	return country, nil
}
