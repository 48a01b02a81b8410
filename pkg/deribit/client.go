package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pricecollector/pkg/timeconv"
)

// DefaultBaseURL points at the Deribit test environment, which serves the
// same public market data as production without rate-limit pressure.
const DefaultBaseURL = "https://test.deribit.com/api/v2"

const (
	// MethodIndexPrice is the public JSON-RPC-over-HTTP method for index prices.
	MethodIndexPrice = "/public/get_index_price"
	// QueryIndexName is the query parameter carrying the ticker.
	QueryIndexName = "index_name"
)

// APIError is a non-2xx reply from Deribit. The body is kept verbatim for
// logging; StatusCode drives retry decisions.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deribit api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable reports whether the error is transient: server-side failures
// and rate limiting, but not client mistakes.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// GetIndexPrice fetches the current index price for the given ticker. The
// returned observation carries the server's usOut timestamp in microseconds.
func (c *Client) GetIndexPrice(ctx context.Context, ticker Ticker) (*IndexPrice, error) {
	if !ticker.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTicker, ticker)
	}

	endpoint := fmt.Sprintf("%s%s?%s=%s", c.baseURL, MethodIndexPrice, QueryIndexName, ticker)

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	var rawResp IndexPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if rawResp.Result == nil || rawResp.Result.IndexPrice == nil {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoIndexPrice)
	}
	if rawResp.UsOut <= 0 {
		return nil, fmt.Errorf("%s: %w", ticker, timeconv.ErrNoTimestamp)
	}

	return &IndexPrice{
		Ticker:      ticker,
		Price:       *rawResp.Result.IndexPrice,
		TimestampUS: rawResp.UsOut,
	}, nil
}
