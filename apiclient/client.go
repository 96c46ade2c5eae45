// Package apiclient is the single point of HTTP egress. It resolves the base
// URL, attaches bearer credentials, enforces per-call deadlines and
// normalizes every failure into the typed taxonomy of internal/apierrors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quantfold/tradekit/internal/apierrors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// apiRoot is the versioned prefix applied to every relative path.
const apiRoot = "/api/v1"

const defaultTimeout = 15 * time.Second

// TokenSource supplies the current access token, "" when unauthenticated.
// The secure store satisfies this directly.
type TokenSource interface {
	AccessToken() (string, error)
}

// Observer receives one callback per completed request. status is 0 when the
// request never produced a response.
type Observer interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Client issues authenticated requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	log        zerolog.Logger
	observer   Observer
}

// Option modifies a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport (primarily for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the default per-call deadline. A context that already
// carries a deadline wins over this default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithObserver wires request metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the given backend origin. tokens may be nil for a
// client that only ever makes unauthenticated calls.
func New(baseURL string, tokens TokenSource, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		timeout:    defaultTimeout,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Get issues a GET request against a relative path.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (Envelope, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (Envelope, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (Envelope, error) {
	fullURL := c.baseURL + apiRoot + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apierrors.Wrapf(apierrors.ErrDecode, "[Client.do] marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrNetwork, "[Client.do] new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPut {
		// Lets the backend de-duplicate rapid double submits.
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	c.attachBearer(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, time.Since(start))
		return nil, c.classifyTransportError(ctx, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, path, resp.StatusCode, time.Since(start))
		return nil, apierrors.Wrapf(apierrors.ErrNetwork, "[Client.do] read body: %v", err)
	}

	c.observe(method, path, resp.StatusCode, time.Since(start))
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	env := Envelope{}
	decodeErr := error(nil)
	if len(raw) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// A non-JSON error body still yields a usable HTTPError.
		return nil, apierrors.NewHTTPError(resp.StatusCode, env.StrAny("message", "detail", "error"))
	}
	if decodeErr != nil {
		return nil, apierrors.Wrapf(apierrors.ErrDecode, "[Client.do] %s %s: %v", method, path, decodeErr)
	}
	return env, nil
}

func (c *Client) attachBearer(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.AccessToken()
	if err != nil {
		// Proceed unauthenticated; the backend will reject if auth was needed.
		c.log.Warn().Err(err).Msg("could not read access token")
		return
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
	}
}

func (c *Client) classifyTransportError(ctx context.Context, method, path string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return apierrors.Wrapf(apierrors.ErrTimeout, "[Client.do] %s %s", method, path)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return apierrors.Wrapf(apierrors.ErrTimeout, "[Client.do] %s %s", method, path)
	}
	return apierrors.Wrapf(apierrors.ErrNetwork, "[Client.do] %s %s: %v", method, path, err)
}

func (c *Client) observe(method, path string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, path, status, duration)
	}
}
