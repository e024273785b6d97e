package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"go.uber.org/multierr"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "retry.max_delay"
	Message string // e.g., "must be >= retry.base_delay"
	Hint    string // e.g., "allowed values: uniform, none"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateClient()...)
	errs = append(errs, c.validateSubscribe()...)
	errs = append(errs, c.validateRetry()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

// ValidateRelay checks the relay section. It is separate because only the
// relay command needs a listen address.
func (c *Config) ValidateRelay() []error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.Relay.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Path:    "relay.listen_addr",
			Message: fmt.Sprintf("invalid address %q", c.Relay.ListenAddr),
			Hint:    "expected host:port or :port",
		})
	}
	return errs
}

// Err folds Validate into a single error, nil when the config is valid.
func (c *Config) Err() error {
	return multierr.Combine(c.Validate()...)
}

func (c *Config) validateClient() []error {
	var errs []error
	cc := c.Client

	if strings.TrimSpace(cc.SubscribeKey) == "" {
		errs = append(errs, ValidationError{
			Path:    "client.subscribe_key",
			Message: "must not be empty",
		})
	}

	origin := strings.TrimSpace(cc.Origin)
	if origin == "" {
		errs = append(errs, ValidationError{
			Path:    "client.origin",
			Message: "must not be empty",
			Hint:    "expected host or host:port, e.g. " + DefaultOrigin,
		})
	} else if strings.Contains(origin, "://") || strings.Contains(origin, "/") {
		errs = append(errs, ValidationError{
			Path:    "client.origin",
			Message: fmt.Sprintf("invalid origin %q", origin),
			Hint:    "use host[:port] and set client.secure for TLS",
		})
	}

	if cc.Proxy != "" {
		u, err := url.Parse(cc.Proxy)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				Path:    "client.proxy",
				Message: err.Error(),
			})
		case u.Host == "" || (u.Scheme != "socks5" && u.Scheme != "http" && u.Scheme != "https"):
			errs = append(errs, ValidationError{
				Path:    "client.proxy",
				Message: fmt.Sprintf("invalid proxy %q", cc.Proxy),
				Hint:    "expected socks5://host:port or http(s)://host:port",
			})
		}
	}

	if cc.UserID != "" && strings.TrimSpace(cc.UserID) == "" {
		errs = append(errs, ValidationError{
			Path:    "client.user_id",
			Message: "must not be blank",
		})
	}

	return errs
}

func (c *Config) validateSubscribe() []error {
	var errs []error
	sc := c.Subscribe

	if sc.RequestTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "subscribe.request_timeout",
			Message: "must be positive",
		})
	}
	if sc.LongPollTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "subscribe.long_poll_timeout",
			Message: "must be positive",
		})
	}
	if sc.HeartbeatInterval < 0 {
		errs = append(errs, ValidationError{
			Path:    "subscribe.heartbeat_interval",
			Message: "must not be negative",
			Hint:    "use 0 to disable heartbeats",
		})
	}
	if sc.PresenceTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "subscribe.presence_timeout",
			Message: "must not be negative",
		})
	}
	if sc.HeartbeatInterval > 0 && sc.PresenceTimeout > 0 && sc.HeartbeatInterval >= sc.PresenceTimeout {
		errs = append(errs, ValidationError{
			Path:    "subscribe.heartbeat_interval",
			Message: "must be shorter than subscribe.presence_timeout",
		})
	}
	if sc.QueueSize < 1 {
		errs = append(errs, ValidationError{
			Path:    "subscribe.queue_size",
			Message: fmt.Sprintf("must be >= 1, got %d", sc.QueueSize),
		})
	}
	if sc.StatusBuffer < 0 {
		errs = append(errs, ValidationError{
			Path:    "subscribe.status_buffer",
			Message: "must not be negative",
		})
	}

	return errs
}

func (c *Config) validateRetry() []error {
	var errs []error
	rc := c.Retry

	if rc.BaseDelay <= 0 {
		errs = append(errs, ValidationError{
			Path:    "retry.base_delay",
			Message: "must be positive",
		})
	}
	if rc.MaxDelay < rc.BaseDelay {
		errs = append(errs, ValidationError{
			Path:    "retry.max_delay",
			Message: "must be >= retry.base_delay",
		})
	}
	if rc.Multiplier < 1 {
		errs = append(errs, ValidationError{
			Path:    "retry.multiplier",
			Message: fmt.Sprintf("must be >= 1, got %g", rc.Multiplier),
		})
	}
	if rc.Jitter < 0 || rc.Jitter > 1 {
		errs = append(errs, ValidationError{
			Path:    "retry.jitter",
			Message: fmt.Sprintf("must be within [0, 1], got %g", rc.Jitter),
		})
	}
	switch rc.JitterMode {
	case JitterUniform, JitterNone:
	default:
		errs = append(errs, ValidationError{
			Path:    "retry.jitter_mode",
			Message: fmt.Sprintf("invalid value %q", rc.JitterMode),
			Hint:    "allowed values: uniform, none",
		})
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	lc := c.Logging

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[lc.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", lc.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[lc.Format] {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("invalid value %q", lc.Format),
			Hint:    "allowed values: json, console",
		})
	}

	switch lc.Colors {
	case "", ColorsAuto, ColorsAlways, ColorsNever:
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.colors",
			Message: fmt.Sprintf("invalid value %q", lc.Colors),
			Hint:    "allowed values: auto, always, never",
		})
	}

	return errs
}
