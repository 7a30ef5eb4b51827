package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/five82/satsrate/internal/convert"
)

// DefaultURL asks CoinGecko for the bitcoin price in the three fiat units
// together with the quote timestamp.
const DefaultURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=jpy%2Cusd%2Ceur&include_last_updated_at=true"

const (
	defaultUserAgent = "satsrate/0.1"
	requestTimeout   = 10 * time.Second
)

var (
	// ErrNetwork wraps transport failures.
	ErrNetwork = errors.New("quote request failed")
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("quote endpoint returned error status")
	// ErrParse is returned when the payload is malformed or incomplete.
	ErrParse = errors.New("malformed quote payload")
	// ErrThrottled is returned when a refresh comes sooner than the limiter allows.
	ErrThrottled = errors.New("quote refresh throttled")
)

// RateFetcher is implemented by *Client and by test doubles.
type RateFetcher interface {
	FetchRates(ctx context.Context) (convert.RateSet, error)
}

var _ RateFetcher = (*Client)(nil)

// Client talks to the quote endpoint.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMinInterval spaces requests at least d apart. Zero disables throttling.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient builds a Client for endpoint, falling back to DefaultURL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:  u,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL the client fetches.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// FetchRates performs one request and returns a complete RateSet. It does not
// retry; callers decide whether to try again.
func (c *Client) FetchRates(ctx context.Context) (convert.RateSet, error) {
	if c == nil {
		return convert.RateSet{}, fmt.Errorf("client is nil")
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return convert.RateSet{}, ErrThrottled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return convert.RateSet{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return convert.RateSet{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return convert.RateSet{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var payload PriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return convert.RateSet{}, fmt.Errorf("%w: decode response: %v", ErrParse, err)
	}
	return payload.RateSet()
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultURL
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse quote url %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse quote url %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	u.Fragment = ""
	return u, nil
}
