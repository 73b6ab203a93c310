// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/shelfmark/shelfmark/internal/platform/apperr"
)

// Doer abstracts the HTTP transport so tests can count and fake calls.
type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client talks to the external bibliographic metadata provider.
//
// # Rate Limiting
//
// The provider allows roughly one lookup per second per API consumer, so the
// client front-loads a token-bucket limiter with a small burst. The limiter
// wait respects the request context, so a cancelled caller never holds a slot.
type Client struct {
	baseURL     string
	httpClient  Doer
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient constructs a provider [Client].
//
// The timeout bounds the full lookup round-trip; on expiry the caller
// receives a TIMEOUT error distinct from other provider failures.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:      logger,
	}
}

// NewClientWithDoer constructs a [Client] over a custom transport. Used by
// tests; production wiring goes through [NewClient].
func NewClientWithDoer(baseURL string, doer Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  doer,
		rateLimiter: rate.NewLimiter(rate.Inf, 0),
		logger:      logger,
	}
}

// providerRecord is the provider's wire format for a single book record.
type providerRecord struct {
	Title       string   `json:"title"`
	LongTitle   string   `json:"title_long"`
	Authors     []string `json:"authors"`
	ISBN10      string   `json:"isbn10"`
	ISBN13      string   `json:"isbn13"`
	Publisher   string   `json:"publisher"`
	Synopsis    string   `json:"synopsis"`
	Pages       int      `json:"pages"`
	PublishedOn string   `json:"date_published"`
	Subjects    []string `json:"subjects"`
	Binding     string   `json:"binding"`
	Image       string   `json:"image"`
	ImageSource string   `json:"image_original"`
}

// providerResponse wraps the provider's record envelope.
type providerResponse struct {
	Book providerRecord `json:"book"`
}

// FetchRecord performs the single outbound lookup for a normalized identifier.
//
// Failure classification:
//   - deadline exceeded → TIMEOUT (retry may help)
//   - transport error → NETWORK_ERROR (retry may help)
//   - 404 → NOT_FOUND (terminal)
//   - other non-2xx → NETWORK_ERROR (provider-side fault)
func (client *Client) FetchRecord(context context.Context, identifier string) (*providerRecord, error) {
	if err := client.rateLimiter.Wait(context); err != nil {
		return nil, apperr.Timeout("Lookup cancelled while waiting for a rate-limit slot", err)
	}

	lookupURL := fmt.Sprintf("%s/book/%s", client.baseURL, identifier)

	request, err := http.NewRequestWithContext(context, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	request.Header.Set("Accept", "application/json")

	client.logger.Debug("metadata_lookup_started",
		slog.String("identifier", identifier),
	)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = response.Body.Close() }()

	switch {
	case response.StatusCode == http.StatusOK:
		// fall through to decode
	case response.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFound("Book record")
	default:
		client.logger.Warn("metadata_lookup_failed",
			slog.String("identifier", identifier),
			slog.Int("status", response.StatusCode),
		)
		return nil, apperr.Unavailable(
			fmt.Sprintf("Metadata provider returned status %d", response.StatusCode), nil)
	}

	var decoded providerResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, apperr.Unavailable("Metadata provider returned an unreadable record", err)
	}

	return &decoded.Book, nil
}

// classifyTransportError maps low-level transport failures to the taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout("Metadata lookup timed out", err)
	}

	// net/http wraps the context error inside an *url.Error.
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return apperr.Timeout("Metadata lookup timed out", err)
	}

	return apperr.Unavailable("Metadata provider is unreachable", err)
}
