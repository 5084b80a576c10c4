// Package api talks to the remote todo resource. Every call answers with
// the server's full list; the caller replaces its state with it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/idilsaglam/todo/internal/model"
)

var (
	// ErrAuthRequired is returned when the server answers 403.
	ErrAuthRequired = errors.New("authentication required")

	// ErrServer matches any StatusError.
	ErrServer = errors.New("server error")

	// ErrNetwork matches any NetworkError.
	ErrNetwork = errors.New("network failure")
)

// StatusError is an unexpected HTTP status other than 403.
type StatusError struct {
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Method, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool { return target == ErrServer }

// NetworkError wraps a transport failure: the request never got a response.
type NetworkError struct {
	Method string
	Err    error
}

func (e *NetworkError) Error() string { return e.Method + ": " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource for a fixed token.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// Client is the todo API client. The zero value is not usable; use New.
type Client struct {
	endpoint string
	tokens   TokenSource
	http     *http.Client
	logger   *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a client for endpoint, e.g. http://host/api/todos.
func New(endpoint string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		tokens:   tokens,
		http:     &http.Client{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the resource URL the client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// List fetches the whole list.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	return c.do(ctx, http.MethodGet, c.endpoint, nil)
}

// Add creates an item with title.
func (c *Client) Add(ctx context.Context, title string) ([]model.Item, error) {
	return c.do(ctx, http.MethodPost, c.endpoint, struct {
		Title string `json:"title"`
	}{title})
}

// Remove deletes the item with id.
func (c *Client) Remove(ctx context.Context, id int64) ([]model.Item, error) {
	return c.do(ctx, http.MethodDelete, c.endpoint+"/"+strconv.FormatInt(id, 10), nil)
}

// Check flips the done flag of id. The new value is derived from
// currentDone as the caller last saw it, not from a fresh read.
func (c *Client) Check(ctx context.Context, id int64, currentDone bool) ([]model.Item, error) {
	return c.do(ctx, http.MethodPut, c.endpoint, struct {
		ID   int64 `json:"id"`
		Done bool  `json:"done"`
	}{id, !currentDone})
}

func (c *Client) do(ctx context.Context, method, url string, body any) ([]model.Item, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: token: %w", method, err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal: %w", method, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "url", url, "error", err)
		return nil, &NetworkError{Method: method, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("request",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, ErrAuthRequired
	default:
		return nil, &StatusError{Method: method, Code: resp.StatusCode}
	}

	var out model.ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if out.Todos == nil {
		out.Todos = []model.Item{}
	}
	return out.Todos, nil
}
