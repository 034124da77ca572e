package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// maxResponseBody caps how much of a response body is read. Admin list
// endpoints are paginated, so anything larger indicates a misbehaving server.
const maxResponseBody = 8 << 20

// CredentialSource supplies the Authorization header for outbound requests
// and is cleared when the server rejects the session.
type CredentialSource interface {
	// AuthorizationHeader returns the header value ("Bearer <token>") and
	// whether a credential is currently held.
	AuthorizationHeader() (string, bool)
	// Clear drops all held credential state. Must be idempotent.
	Clear()
}

// UnauthorizedHook runs after a 401 has cleared the credential source.
// returnTo is the path of the rejected request, so the caller can send the
// user back there after re-authenticating.
type UnauthorizedHook func(returnTo string)

// Client is the single choke point for every outbound admin API request:
// it attaches the Authorization header, unwraps the response envelope and
// translates failures uniformly.
type Client struct {
	baseURL        string
	httpc          *http.Client
	creds          CredentialSource
	onUnauthorized UnauthorizedHook
	logger         *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithCredentialSource sets the source of the Authorization header.
func WithCredentialSource(src CredentialSource) Option {
	return func(c *Client) { c.creds = src }
}

// WithUnauthorizedHook sets the hook fired after a 401 clears the session.
func WithUnauthorizedHook(hook UnauthorizedHook) Option {
	return func(c *Client) { c.onUnauthorized = hook }
}

// WithLogger sets the structured logger. If not set, a JSON logger writing
// to stderr at Info level is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Header carries extra per-call headers, e.g. the sensitive-operation
	// token required by step-up-gated endpoints.
	Header http.Header
}

// Do issues req and decodes the unwrapped payload into T.
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	if err := c.Call(ctx, req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Call issues req and decodes the unwrapped payload into out (which may be
// nil for calls whose payload the caller discards).
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", req.Method, req.Path, ctx.Err())
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", req.Method, req.Path, ctx.Err())
		}
		return fmt.Errorf("%s %s: reading response: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(req.Path) {
		c.handleUnauthorized(req.Path)
		return ErrUnauthorized
	}

	// The server reports most failures through the envelope, including on
	// non-2xx statuses; prefer its message over a bare status error.
	if err := decodeEnvelope(body, out); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if c.creds != nil {
		if header, ok := c.creds.AuthorizationHeader(); ok {
			httpReq.Header.Set("Authorization", header)
		}
	}
	return httpReq, nil
}

// handleUnauthorized clears the credential source and fires the hook once
// for the rejected request. Auth endpoints never reach here, so the hook
// cannot loop through the login flow's own failures.
func (c *Client) handleUnauthorized(path string) {
	c.logger.Warn("session rejected by server, clearing credentials", slog.String("path", path))
	if c.creds != nil {
		c.creds.Clear()
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(path)
	}
}

// isAuthPath reports whether path belongs to the auth flow itself, which is
// exempt from 401 session clearing.
func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}
