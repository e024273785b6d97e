// Package backoff decides how long the subscribe loop waits after a failed
// poll. Delays grow exponentially from a base, are capped, optionally jittered,
// and never shrink while failures keep coming.
package backoff

import (
	"time"

	cbackoff "github.com/cenkalti/backoff/v5"

	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
)

// Jitter modes
const (
	JitterUniform = config.JitterUniform
	JitterNone    = config.JitterNone
)

// Policy is the static part of the retry behavior.
type Policy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64 // fraction of the current interval
	JitterMode string
}

// DefaultPolicy mirrors config.DefaultConfig().Retry.
func DefaultPolicy() Policy {
	return FromConfig(config.DefaultConfig().Retry)
}

// FromConfig converts the retry section of the client config.
func FromConfig(rc config.RetryConfig) Policy {
	return Policy{
		BaseDelay:  rc.BaseDelay,
		MaxDelay:   rc.MaxDelay,
		Multiplier: rc.Multiplier,
		Jitter:     rc.Jitter,
		JitterMode: rc.JitterMode,
	}
}

func (p Policy) normalized() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
	if p.JitterMode != JitterUniform {
		p.Jitter = 0
	}
	return p
}

// NewState returns a fresh RetryState driven by this policy.
func (p Policy) NewState() *RetryState {
	p = p.normalized()
	s := &RetryState{policy: p}
	s.gen = &cbackoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.MaxDelay,
	}
	s.gen.Reset()
	return s
}

// RetryState tracks consecutive poll failures. It is owned by a single
// goroutine and is not safe for concurrent use.
type RetryState struct {
	ConsecutiveFailures int
	NextDelay           time.Duration

	policy Policy
	gen    *cbackoff.ExponentialBackOff
}

// Failure records a failed attempt and returns the delay to wait before the
// next one. hint is a server supplied minimum (Retry-After); it is capped at
// the policy maximum. The returned delay is never shorter than the previous
// one and never longer than MaxDelay.
func (s *RetryState) Failure(hint time.Duration) time.Duration {
	s.ConsecutiveFailures++

	d := s.gen.NextBackOff()
	if d == cbackoff.Stop || d > s.policy.MaxDelay {
		d = s.policy.MaxDelay
	}
	if hint > d {
		d = min(hint, s.policy.MaxDelay)
	}
	if d < s.NextDelay {
		d = s.NextDelay
	}

	s.NextDelay = d
	return d
}

// Success clears the failure streak.
func (s *RetryState) Success() {
	s.ConsecutiveFailures = 0
	s.NextDelay = 0
	s.gen.Reset()
}

// Failing reports whether the last attempt failed.
func (s *RetryState) Failing() bool {
	return s.ConsecutiveFailures > 0
}

// Policy returns the normalized policy in effect.
func (s *RetryState) Policy() Policy {
	return s.policy
}
