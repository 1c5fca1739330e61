// Package coingecko is a client for the CoinGecko REST API, used as the
// primary price source and the bulk symbol listing.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"coinledger/internal/domain"
)

// Default configuration values. The public API allows roughly 5-15
// requests per minute, so the limiter defaults well under that.
const (
	DefaultBaseURL     = "https://api.coingecko.com/api/v3"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRateLimit   = rate.Limit(0.25) // one request per 4s
)

// Client calls the CoinGecko REST API with bounded retry, exponential
// backoff on 429/5xx, and client-side rate limiting.
type Client struct {
	baseURL     string
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithRateLimit sets the client-side request rate.
func WithRateLimit(l rate.Limit) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(l, 1)
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new CoinGecko client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(DefaultRateLimit, 1),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listedCoin is one entry of the /coins/list response.
type listedCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ListCoins fetches the bulk symbol listing: every coin the service knows,
// as (externalId, symbol, name) triples.
func (c *Client) ListCoins(ctx context.Context) ([]domain.SymbolMapping, error) {
	var listed []listedCoin
	if err := c.get(ctx, "/coins/list", nil, &listed); err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}

	mappings := make([]domain.SymbolMapping, 0, len(listed))
	for _, coin := range listed {
		mappings = append(mappings, domain.SymbolMapping{
			Symbol:     strings.ToUpper(coin.Symbol),
			ExternalID: coin.ID,
			Name:       coin.Name,
		})
	}
	return mappings, nil
}

// SimplePrice fetches current USD prices for a batch of external ids.
// Ids unknown to the service are absent from the result.
func (c *Client) SimplePrice(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	if len(ids) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")

	var raw map[string]map[string]decimal.Decimal
	if err := c.get(ctx, "/simple/price", params, &raw); err != nil {
		return nil, fmt.Errorf("simple price: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(raw))
	for id, quotes := range raw {
		if usd, ok := quotes["usd"]; ok {
			prices[id] = usd
		}
	}
	return prices, nil
}

// get performs a GET with rate limiting, bounded retries and exponential
// backoff on 429 and 5xx responses.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
