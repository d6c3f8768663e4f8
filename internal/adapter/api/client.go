package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiwiq/alpha-cli/internal/port"
)

const (
	apiPrefix = "/api/v1"
	mePath    = "/auth/me"
)

// Error is an HTTP-level failure from the Alpha API. Status carries the
// response code; Detail the server's error message when it sent one.
type Error struct {
	Status int
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("alpha API error (%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("alpha API error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.err }

// Client is the single chokepoint for outgoing Alpha API calls. It
// attaches the stored bearer token, persists rotated tokens found in
// response bodies, clears the session on any 401, and short-circuits
// the auth probe after repeated failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     port.TokenStore
	breaker    *probeBreaker

	// onSessionExpired fires once per 401 response, after the token has
	// been cleared. The owner decides whether navigation is needed.
	onSessionExpired func()
}

// Option customizes Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSessionExpiredHook registers the 401 reaction.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithClock overrides the breaker's clock for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.breaker.now = now
		}
	}
}

// New creates a client rooted at baseURL (without the /api/v1 prefix).
func New(baseURL string, tokens port.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + apiPrefix,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		breaker:    newProbeBreaker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

// post issues a POST with an optional JSON body.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, contentType, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, contentType, body, out)
}

// postForm issues a form-urlencoded POST (the login endpoint's format).
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

// put issues a PUT with a JSON body.
func (c *Client) put(ctx context.Context, path string, in, out any) error {
	body, contentType, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, contentType, body, out)
}

// del issues a DELETE.
func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, "", nil, nil)
}

// upload issues a multipart POST with a single "file" part.
func (c *Client) upload(ctx context.Context, path, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, w.FormDataContentType(), &buf, out)
}

func jsonBody(in any) (io.Reader, string, error) {
	if in == nil {
		return nil, "application/json", nil
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, "", fmt.Errorf("marshal payload: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

// do performs one request/response cycle with all the adapter's side
// effects: bearer attach, probe breaker, 401 reaction, token rotation.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	isProbe := path == mePath

	if isProbe && !c.breaker.Allow() {
		// Synthetic local failure; never touches the network.
		return &Error{
			Status: http.StatusTooManyRequests,
			Detail: port.ErrTooManyAuthProbes.Error(),
			err:    port.ErrTooManyAuthProbes,
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isProbe {
			c.breaker.Failure()
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if isProbe {
			c.breaker.Failure()
		}
		c.expireSession()
		return &Error{Status: resp.StatusCode, Detail: errorDetail(raw), err: port.ErrUnauthorized}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isProbe {
			c.breaker.Failure()
		}
		return &Error{Status: resp.StatusCode, Detail: errorDetail(raw)}
	}

	if isProbe {
		c.breaker.Success()
	}

	// Some endpoints rotate the token transparently; persist it whenever
	// a response body carries one.
	var rotated struct {
		AccessToken string `json:"access_token"`
	}
	if json.Unmarshal(raw, &rotated) == nil && rotated.AccessToken != "" {
		if err := c.tokens.Save(rotated.AccessToken); err != nil {
			slog.Error("failed to persist rotated token", "error", err)
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// expireSession clears the stored token and fires the 401 hook.
func (c *Client) expireSession() {
	if err := c.tokens.Clear(); err != nil {
		slog.Error("failed to clear token after 401", "error", err)
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func errorDetail(raw []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		ErrMsg string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.ErrMsg
}
