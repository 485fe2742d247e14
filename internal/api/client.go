package api

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

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBody = 4 << 20 // 4MB

// TokenSource yields the bearer token of the current session, or "" when
// there is none.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront REST API. The zero timeout of the
// underlying http.Client is kept on purpose and nothing is retried.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithCircuitBreaker makes the client fail fast while the API is unreachable.
// Only transport failures count against the breaker.
func WithCircuitBreaker(st gobreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](st)
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithTokenSource returns a copy of c that authenticates with ts. The copy
// shares the transport and breaker of c.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// do sends one request and returns the decoded envelope of a successful call.
// Any other outcome is an *Error.
func (c *Client) do(ctx context.Context, op, method string, body any, path ...string) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path...).String(), reader)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, Err: err}
	}

	env, decodeErr := decodeEnvelope(data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Kind: statusKind(resp.StatusCode), Op: op, Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.text()
		}
		if apiErr.Message == "" {
			apiErr.Err = errors.New(http.StatusText(resp.StatusCode))
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindShape, Op: op, Status: resp.StatusCode, Err: decodeErr}
	}
	if !env.Success {
		return nil, &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Message: env.text()}
	}
	return env, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
}

func statusKind(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}
