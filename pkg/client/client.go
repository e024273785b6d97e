// Package client is the public API: subscribe to channels and groups, publish
// messages and signals, and query or announce presence.
package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/backoff"
	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/registry"
	"github.com/DeBrosOfficial/pubsub-client/pkg/request"
	"github.com/DeBrosOfficial/pubsub-client/pkg/subscribe"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/transport"
)

// Client is safe for concurrent use. One subscribe loop runs per client.
type Client struct {
	cfg       config.Config
	builder   *request.Builder
	transport transport.Transport
	registry  *registry.Registry
	loop      *subscribe.Loop
	logger    *logging.ColoredLogger
	clock     clock.Clock

	ownsLogger bool
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
	startTime  time.Time

	// bgMu orders background.Add against the Wait in Close.
	bgMu       sync.Mutex
	background sync.WaitGroup
}

// New validates cfg, builds the client and starts its subscribe loop. The
// loop stays idle until the first Subscribe.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, NewClientError("new", "config cannot be nil", errors.ErrInvalidInput)
	}
	if err := cfg.Err(); err != nil {
		return nil, NewClientError("new", "invalid configuration", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{cfg: *cfg, clock: o.clock}
	if c.clock == nil {
		c.clock = clock.New()
	}

	switch {
	case o.logger != nil:
		c.logger = o.logger
	case o.quiet != nil:
		zl, err := newClientLogger(*o.quiet)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		c.logger = logging.Wrap(zl)
		c.ownsLogger = true
	default:
		logger, err := loggerFromConfig(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		c.logger = logger
		c.ownsLogger = true
	}

	builder, err := request.NewBuilder(cfg.Client, cfg.Subscribe, request.WithClock(c.clock))
	if err != nil {
		return nil, NewClientError("new", "invalid credentials", err)
	}
	c.builder = builder

	c.transport = o.transport
	if c.transport == nil {
		httpClient := o.httpClient
		if httpClient == nil && cfg.Client.Proxy != "" {
			if httpClient, err = transport.NewProxiedClient(cfg.Client.Proxy); err != nil {
				return nil, NewClientError("new", "invalid proxy", err)
			}
		}
		c.transport = transport.NewHTTP(
			transport.WithHTTPClient(httpClient),
			transport.WithUserAgent(cfg.Client.Agent),
			transport.WithLogger(c.logger),
		)
	}

	c.registry = registry.New(
		registry.WithLogger(c.logger),
		registry.WithDefaultQueueSize(cfg.Subscribe.QueueSize),
	)
	c.loop = subscribe.New(c.registry, c.builder, c.transport,
		subscribe.WithClock(c.clock),
		subscribe.WithLogger(c.logger),
		subscribe.WithPolicy(backoff.FromConfig(cfg.Retry)),
		subscribe.WithSkipMalformed(cfg.Subscribe.SkipMalformed),
		subscribe.WithHeartbeat(cfg.Subscribe.HeartbeatInterval),
		subscribe.WithStatusBuffer(cfg.Subscribe.StatusBuffer),
	)
	c.loop.Start()
	c.startTime = c.clock.Now()

	c.logger.ComponentInfo(logging.ComponentClient, "Client started",
		zap.String("origin", cfg.Client.Origin),
		zap.String("user_id", c.builder.UserID()),
		zap.Bool("signed", c.builder.Signed()),
		zap.Bool("presence", cfg.Client.Presence),
	)
	return c, nil
}

// UserID returns the presence identity of this client.
func (c *Client) UserID() string { return c.builder.UserID() }

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() config.Config { return c.cfg }

// StatusEvents streams loop status events. The channel is closed on Close.
func (c *Client) StatusEvents() <-chan subscribe.Status { return c.loop.Status() }

// Close stops the subscribe loop, releases every subscription with
// ErrClosed and waits for pending leave calls. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.bgMu.Lock()
		c.closed.Store(true)
		c.bgMu.Unlock()
		c.closeErr = multierr.Append(c.closeErr, c.loop.Close())
		c.background.Wait()
		if closer, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
			closer.CloseIdleConnections()
		}
		c.logger.ComponentInfo(logging.ComponentClient, "Client closed",
			zap.Duration("uptime", c.clock.Since(c.startTime)),
		)
		if c.ownsLogger && c.cfg.Logging.OutputFile != "" {
			c.closeErr = multierr.Append(c.closeErr, c.logger.Sync())
		}
	})
	return c.closeErr
}

// Status is a snapshot of the client's subscription engine.
type Status struct {
	State     subscribe.State     `json:"state"`
	Cursor    timetoken.Timetoken `json:"cursor"`
	Last      subscribe.Status    `json:"last"`
	LastError string              `json:"last_error,omitempty"`
	Stats     subscribe.Stats     `json:"stats"`
	Names     registry.Names      `json:"names"`
	Listeners int                 `json:"listeners"`
	UserID    string              `json:"user_id"`
}

// Status returns the current engine state.
func (c *Client) Status() Status {
	last := c.loop.LastStatus()
	return Status{
		State:     c.loop.State(),
		Cursor:    c.loop.Cursor(),
		Last:      last,
		LastError: last.Error(),
		Stats:     c.loop.Stats(),
		Names:     c.registry.Names(),
		Listeners: c.registry.Len(),
		UserID:    c.builder.UserID(),
	}
}

// HealthStatus contains health check information
type HealthStatus struct {
	Status      string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Checks      map[string]string `json:"checks"`
	LastUpdated time.Time         `json:"last_updated"`
	Uptime      time.Duration     `json:"uptime"`
}

// Health summarizes Status for probes.
func (c *Client) Health() *HealthStatus {
	st := c.Status()
	status := "healthy"
	checks := map[string]string{
		"subscribe": st.State.String(),
	}

	switch {
	case c.closed.Load() || st.State == subscribe.StateTerminated:
		status = "unhealthy"
		checks["subscribe"] = "terminated"
	case st.State == subscribe.StateBackingOff:
		status = "degraded"
		checks["subscribe"] = fmt.Sprintf("backing off after %d failures", st.Last.Failures)
	case st.Last.Category == subscribe.CategoryPaused:
		status = "unhealthy"
		checks["subscribe"] = "paused: " + st.LastError
	}

	return &HealthStatus{
		Status:      status,
		Checks:      checks,
		LastUpdated: c.clock.Now(),
		Uptime:      c.clock.Since(c.startTime),
	}
}

// execute runs a one-shot request. It is never retried.
func (c *Client) execute(ctx context.Context, req *request.Request) (*transport.Response, error) {
	if c.closed.Load() {
		return nil, errors.ErrClosed
	}
	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := transport.Check(resp); err != nil {
		return nil, err
	}
	return resp, nil
}
