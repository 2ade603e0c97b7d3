// Package upstream holds the outbound HTTP client shared by every source adapter.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	securitynet "muses/internal/security/netutil"
)

const (
	DefaultUserAgent    = "muses/1.0 (+personal site)"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 5 << 20
	maxRedirects        = 5
)

// ErrUnexpectedStatus matches any *StatusError via errors.Is.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError is returned for responses with a status code of 400 or above.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d from %s", e.Code, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// AllowLoopback permits loopback destinations; only local test servers need it.
	AllowLoopback bool
}

// RedirectPolicy vets each redirect hop after the built-in private address check.
type RedirectPolicy func(req *http.Request) error

type Client struct {
	http          *http.Client
	userAgent     string
	maxBody       int64
	allowLoopback bool
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	c := &Client{
		userAgent:     cfg.UserAgent,
		maxBody:       cfg.MaxBodyBytes,
		allowLoopback: cfg.AllowLoopback,
	}
	c.http = &http.Client{Timeout: cfg.Timeout, Transport: transport, CheckRedirect: c.checkRedirect(nil)}
	return c
}

// checkRedirect re-applies the destination checks of Do to every hop, so a
// redirect cannot reach an address the first request could not.
func (c *Client) checkRedirect(policy RedirectPolicy) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if err := securitynet.CheckHost(req.Context(), req.URL.Hostname(), c.allowLoopback); err != nil {
			return err
		}
		if policy != nil {
			return policy(req)
		}
		return nil
	}
}

// WithRedirectPolicy returns a client sharing c's transport and limits whose
// redirects must also pass policy.
func (c *Client) WithRedirectPolicy(policy RedirectPolicy) *Client {
	clone := *c
	hc := *c.http
	hc.CheckRedirect = clone.checkRedirect(policy)
	clone.http = &hc
	return &clone
}

// CloseIdleConnections drops pooled keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// MaxBodyBytes is the read limit applied to response bodies.
func (c *Client) MaxBodyBytes() int64 {
	return c.maxBody
}

// Do sends req after blocking private destinations. Responses with status
// >= 400 are closed and returned as *StatusError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if err := securitynet.CheckHost(req.Context(), req.URL.Hostname(), c.allowLoopback); err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.Redacted()}
	}
	return resp, nil
}

// Get fetches url and returns at most MaxBodyBytes of the body.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// PostJSON encodes in as the request body, sends it with the extra headers and
// decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
