// Package eodhd provides a client for the EODHD (End of Day Historical Data) API.
// Only the endpoints the watchers need are covered: real-time quotes and news.
package eodhd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/ipsa/internal/interfaces"
)

// QueryOption represents an optional parameter for API queries.
type QueryOption func(*queryParams)

type queryParams struct {
	From  time.Time
	To    time.Time
	Limit int
}

// WithDateRange sets the date range for the query.
func WithDateRange(from, to time.Time) QueryOption {
	return func(p *queryParams) {
		p.From = from
		p.To = to
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(limit int) QueryOption {
	return func(p *queryParams) {
		p.Limit = limit
	}
}

// APIError represents an error from the EODHD API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap classifies the status: auth failures are configuration errors,
// unknown symbols are data errors, everything else is transient.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return interfaces.ErrConfiguration
	case e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusBadRequest:
		return interfaces.ErrDataFormat
	default:
		return interfaces.ErrTransientFetch
	}
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EODHD rate limit exceeded, retry after %v", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return interfaces.ErrTransientFetch
}
