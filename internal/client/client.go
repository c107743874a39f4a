// Package client talks to the scoring service and renders its answers for
// the terminal.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/creditscore/internal/domain/types"
	"github.com/okian/creditscore/pkg/logger"
	"github.com/patrickmn/go-cache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults for New.
const (
	DefaultBaseURL  = "http://localhost:8000"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 5 * time.Minute

	maxErrorBody = 4 << 10
	clientsKey   = "clients"
)

// Result is a decoded prediction plus the raw response body.
type Result struct {
	Prediction types.Prediction
	Raw        []byte
}

// Client calls the scoring service. The identifier list is cached for
// the configured TTL.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *cache.Cache
	logger  logger.Logger
	debug   bool
	ttl     time.Duration
	timeout time.Duration
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCacheTTL sets how long the identifier list is reused.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithHTTPClient bases requests on a copy of h; h itself is not modified.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebug logs full request and response dumps.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// New validates baseURL and builds a Client.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid service url %q: want http(s)://host[:port]", baseURL)
	}

	c := &Client{
		baseURL: u,
		ttl:     DefaultCacheTTL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("client")
	}
	hc := &http.Client{}
	if c.http != nil {
		*hc = *c.http
	}
	c.http = hc
	c.http.Timeout = c.timeout
	c.http.Transport = NewLoggingRoundTripper(c.http.Transport, c.logger, c.debug)
	c.cache = cache.New(c.ttl, 2*c.ttl)

	return c, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Clients returns the known identifiers, from cache when fresh.
func (c *Client) Clients(ctx context.Context) ([]int64, error) {
	if v, ok := c.cache.Get(clientsKey); ok {
		ids := v.([]int64)
		return append([]int64(nil), ids...), nil
	}

	body, err := c.do(ctx, http.MethodGet, "/clients", nil)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	c.cache.Set(clientsKey, ids, cache.DefaultExpiration)
	return append([]int64(nil), ids...), nil
}

// Refresh drops the cached identifier list.
func (c *Client) Refresh() {
	c.cache.Delete(clientsKey)
}

// Predict asks the service to score one client.
func (c *Client) Predict(ctx context.Context, id int64) (*Result, error) {
	payload, err := json.Marshal(types.PredictRequest{ClientID: &id})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/predict", payload)
	if err != nil {
		return nil, err
	}

	var p types.Prediction
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if p.Decision == "" {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, "décision")
	}
	return &Result{Prediction: p, Raw: body}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w at %s: %w", ErrConnection, c.BaseURL(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
		var er types.ErrorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Detail = er.Detail
		}
		return nil, apiErr
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
