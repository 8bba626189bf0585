package api

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// headerTransport attaches credentials and correlation headers.
type headerTransport struct {
	next      http.RoundTripper
	apiKey    string
	userAgent string
	tokens    TokenFunc
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	req := r.Clone(r.Context())

	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}
	if t.tokens != nil {
		token, err := t.tokens(req.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to read session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return t.next.RoundTrip(req)
}

// loggingTransport logs every request with timing information.
type loggingTransport struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(start)
	if err != nil {
		t.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", duration).
			Msg("http request failed")
		return nil, err
	}

	t.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Msg("http request")

	return resp, nil
}

// sanitizeText removes all markup and decodes entities back to plain text.
func sanitizeText(policy *bluemonday.Policy, s string) string {
	return html.UnescapeString(policy.Sanitize(s))
}
