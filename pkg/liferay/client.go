// Package liferay is the client for the Liferay DXP headless REST endpoints
// the forms talk to: picklists, object collections, the current user, object
// entries and document uploads.
package liferay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-fleetform/pkg/logging"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 10 << 20
)

// ErrBaseURLRequired is returned by New when no base URL is configured.
var ErrBaseURLRequired = errors.New("liferay: base url is required")

// Client performs authenticated, context-aware requests against one portal.
type Client struct {
	base     *url.URL
	http     *http.Client
	username string
	password string
	token    string
	timeout  time.Duration
	logger   logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithBasicAuth authenticates with portal credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithToken authenticates with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout bounds every request. Zero disables the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNoOp(logger)
	}
}

// New returns a client for the portal at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("liferay: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("liferay: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:    parsed,
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured portal URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// resolve joins path (and query) onto the base URL.
func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("liferay: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	data, err := c.do(ctx, method, path, query, reader, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("liferay: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.resolve(path, query)
	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("liferay: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := reqCtx.Err(); ctxErr != nil {
			return nil, wrapContextError(ctxErr)
		}
		return nil, wrapTransportError(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, wrapTransportError(fmt.Errorf("read %s %s: %w", method, path, err))
	}
	c.logger.Debug("liferay request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeProblem(resp.StatusCode, data)
	}
	return data, nil
}
