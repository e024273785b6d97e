package client

import (
	"net/http"

	"github.com/benbjohnson/clock"

	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/transport"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	transport  transport.Transport
	httpClient *http.Client
	clock      clock.Clock
	logger     *logging.ColoredLogger
	quiet      *bool
}

// WithTransport replaces the HTTP transport, e.g. with a test double.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHTTPClient sets the http.Client used by the default transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock sets the clock driving backoff, heartbeats and signatures.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.ColoredLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithQuietMode ignores the logging section and logs Warn+ only when quiet,
// everything in development format otherwise.
func WithQuietMode(quiet bool) Option {
	return func(o *options) { o.quiet = &quiet }
}
