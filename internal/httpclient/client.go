// Package httpclient is the shared transport behind every resource client.
// It injects the session credential, resolves response envelopes, maps
// failures onto the apperrors taxonomy and records metrics.
package httpclient

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/metrics"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const defaultMaxBodyBytes = 8 << 20

// ErrResponseTooLarge is returned when a response body exceeds the
// configured limit. The body is never decoded partially.
var ErrResponseTooLarge = errors.New("response body too large")

// CredentialSource supplies the bearer token. *session.Store implements it.
type CredentialSource interface {
	GetCredential(ctx context.Context) (string, bool)
}

// Config configures the client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials CredentialSource
	Logger      *logging.Logger

	// HTTPClient overrides the underlying client; Timeout and Resilience
	// are ignored when it is set.
	HTTPClient *http.Client

	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	// MaxResponseBytes bounds a response body; zero means 8 MiB.
	MaxResponseBytes int64

	Resilience     bool
	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig
}

// Client sends requests to the remote API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	creds   CredentialSource
	limiter *rate.Limiter
	log     *logging.Logger
	maxBody int64
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("httpclient: invalid base url %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
		if cfg.Resilience {
			hc.Transport = NewResilientTransport(nil, cfg.Retry, cfg.CircuitBreaker)
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &Client{
		baseURL: base,
		http:    hc,
		creds:   cfg.Credentials,
		limiter: limiter,
		log:     log,
		maxBody: maxBody,
	}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when set. Multipart takes precedence.
	Body      any
	Multipart *Multipart

	// RequireAuth fails with apperrors.ErrNoCredential before any I/O when
	// no credential is stored. Anonymous never sends one.
	RequireAuth bool
	Anonymous   bool

	// Resource labels metrics and errors, e.g. "projects".
	Resource string
	// Fallback is the error message used when the body carries none.
	Fallback string
	// Accept lists extra non-2xx statuses treated as success.
	Accept []int
}

// Response is a successful reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Value unwraps a single-value payload.
func (r *Response) Value() Envelope { return UnwrapValue(r.Body) }

// List unwraps a list payload, trying fields after "data".
func (r *Response) List(fields ...string) Envelope { return UnwrapList(r.Body, fields...) }

// Do sends req and returns the response when its status is acceptable.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := strings.TrimSpace(req.Method + " " + req.Path)

	var token string
	if !req.Anonymous && c.creds != nil {
		token, _ = c.creds.GetCredential(ctx)
	}
	if req.RequireAuth && token == "" {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNoCredential)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &apperrors.NetworkError{Op: op, Err: err}
		}
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	reqID := logging.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	httpReq.Header.Set(RequestIDHeader, reqID)

	entry := c.log.WithContext(ctx).WithFields(logrus.Fields{
		"request_id": reqID,
		"method":     req.Method,
		"path":       req.Path,
	})

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordClientRequest(req.Resource, req.Method, 0, time.Since(start))
		entry.WithError(err).Warn("request failed")
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, &apperrors.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	duration := time.Since(start)
	metrics.RecordClientRequest(req.Resource, req.Method, resp.StatusCode, duration)
	if err != nil {
		entry.WithError(err).Warn("read response failed")
		return nil, &apperrors.NetworkError{Op: op, Err: err}
	}
	if int64(len(body)) > c.maxBody {
		entry.WithField("limit", c.maxBody).Warn("response body too large")
		return nil, fmt.Errorf("%s: %w: more than %d bytes", op, ErrResponseTooLarge, c.maxBody)
	}

	entry = entry.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": duration})
	if !accepted(resp.StatusCode, req.Accept) {
		fallback := req.Fallback
		if fallback == "" {
			fallback = http.StatusText(resp.StatusCode)
		}
		entry.Debug("request rejected")
		return nil, &apperrors.StatusError{
			Resource:   req.Resource,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, fallback),
		}
	}
	entry.Debug("request completed")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Multipart != nil:
		raw, ct, err := req.Multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("encode multipart body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), ct
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

func accepted(status int, extra []int) bool {
	if status >= 200 && status < 300 {
		return true
	}
	for _, s := range extra {
		if s == status {
			return true
		}
	}
	return false
}
