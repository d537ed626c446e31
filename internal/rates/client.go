// Package rates fetches currency exchange rates from an external HTTP source.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Source fetches the current exchange rate for a currency pair.
// Implementations must be safe for concurrent use.
type Source interface {
	// Name returns the source's display name, recorded on cache rows.
	Name() string

	// FetchRate returns how many units of the quote currency one unit of
	// the base currency buys (e.g. FetchRate(ctx, "USD", "CLP") ≈ 950.50).
	FetchRate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// Client fetches rates from an HTTP endpoint that returns a JSON map of
// currency code to rate, quoted against the endpoint's base currency.
type Client struct {
	httpClient *http.Client
	url        string // overridable for tests
	name       string
}

// ratesResponse matches the wire format of open.er-api.com style endpoints.
// Rates are decoded as decimals so converting to the integer
// two-implied-decimals representation never goes through binary floats.
type ratesResponse struct {
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// NewClient creates a rate source backed by the given endpoint URL.
func NewClient(httpClient *http.Client, url string) *Client {
	return &Client{httpClient: httpClient, url: url, name: "open.er-api.com"}
}

// Name returns the source's display name.
func (c *Client) Name() string { return c.name }

// FetchRate fetches the base→quote rate. The endpoint quotes everything
// against one base currency; a request for a different base is rejected
// rather than silently inverted.
func (c *Client) FetchRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate request: unexpected status %d", resp.StatusCode)
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("decoding rate response: %w", err)
	}

	if parsed.BaseCode != "" && !strings.EqualFold(parsed.BaseCode, base) {
		return decimal.Zero, fmt.Errorf("rate source quotes against %s, wanted %s", parsed.BaseCode, base)
	}

	rate, ok := parsed.Rates[strings.ToUpper(quote)]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate source has no %s rate", quote)
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid %s/%s rate: %s", base, quote, rate)
	}

	return rate, nil
}
