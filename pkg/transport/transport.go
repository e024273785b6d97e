// Package transport executes built requests against the message bus.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/request"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// DefaultMaxBodySize bounds how much of a response is read.
const DefaultMaxBodySize = 32 << 20

// Response is the raw outcome of one request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs a single attempt of a request. It never retries.
// Non-2xx responses are returned as responses, not errors; use Check.
type Transport interface {
	Execute(ctx context.Context, req *request.Request) (*Response, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *request.Request) (*Response, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, req *request.Request) (*Response, error) {
	return f(ctx, req)
}

// Check maps a non-2xx response to a ServerError carrying any Retry-After.
func Check(resp *Response) error {
	if resp.OK() {
		return nil
	}
	se := wire.DecodeServerError(resp.StatusCode, resp.Body)
	if d := retryAfter(resp.Header); d > 0 {
		se.WithRetryAfter(d)
	}
	return se
}

func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(t *HTTP) { t.agent = agent }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.ColoredLogger) Option {
	return func(t *HTTP) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMaxBodySize bounds response reads.
func WithMaxBodySize(n int64) Option {
	return func(t *HTTP) {
		if n > 0 {
			t.maxBody = n
		}
	}
}

// HTTP is the net/http implementation of Transport.
type HTTP struct {
	client  *http.Client
	agent   string
	maxBody int64
	logger  *logging.ColoredLogger
}

// NewHTTP creates an HTTP transport. Request.Timeout is applied per call as
// a context deadline, so the client itself carries no timeout.
func NewHTTP(opts ...Option) *HTTP {
	t := &HTTP{
		client:  &http.Client{},
		maxBody: DefaultMaxBodySize,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CloseIdleConnections releases pooled connections.
func (t *HTTP) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// Execute sends req once.
func (t *HTTP) Execute(ctx context.Context, req *request.Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL(), body)
	if err != nil {
		return nil, errors.NewTransportError(req.Op, fmt.Errorf("build request: %w", err))
	}
	if t.agent != "" {
		httpReq.Header.Set("User-Agent", t.agent)
	}
	httpReq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewTransportError(req.Op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody))
	if err != nil {
		return nil, errors.NewTransportError(req.Op, fmt.Errorf("read body: %w", err))
	}

	t.logger.ComponentDebug(logging.ComponentTransport, "Request completed",
		zap.String("op", req.Op),
		zap.String("url", req.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
