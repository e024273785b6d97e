package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
)

func exactPolicy() Policy {
	return Policy{
		BaseDelay:  time.Second,
		MaxDelay:   8 * time.Second,
		Multiplier: 2,
		JitterMode: JitterNone,
	}
}

func TestFailureGrowsExponentiallyToCap(t *testing.T) {
	s := exactPolicy().NewState()

	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second,
		8 * time.Second, 8 * time.Second, 8 * time.Second,
	}
	for i, w := range want {
		got := s.Failure(0)
		assert.Equal(t, w, got, "attempt %d", i+1)
		assert.Equal(t, i+1, s.ConsecutiveFailures)
		assert.Equal(t, got, s.NextDelay)
	}
}

func TestSuccessResets(t *testing.T) {
	s := exactPolicy().NewState()
	s.Failure(0)
	s.Failure(0)
	s.Failure(0)
	require.True(t, s.Failing())

	s.Success()
	assert.False(t, s.Failing())
	assert.Zero(t, s.ConsecutiveFailures)
	assert.Zero(t, s.NextDelay)
	assert.Equal(t, time.Second, s.Failure(0))
}

func TestUniformJitterIsMonotonicAndCapped(t *testing.T) {
	p := Policy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 1.5,
		Jitter:     0.5,
		JitterMode: JitterUniform,
	}

	for run := 0; run < 50; run++ {
		s := p.NewState()
		var prev time.Duration
		for i := 0; i < 20; i++ {
			d := s.Failure(0)
			require.GreaterOrEqual(t, d, prev, "run %d attempt %d", run, i)
			require.LessOrEqual(t, d, p.MaxDelay)
			require.Greater(t, d, time.Duration(0))
			prev = d
		}
	}
}

func TestRetryAfterHint(t *testing.T) {
	s := exactPolicy().NewState()

	assert.Equal(t, 5*time.Second, s.Failure(5*time.Second))
	// the next computed delay (2s) is below the previous one
	assert.Equal(t, 5*time.Second, s.Failure(0))
	assert.Equal(t, 8*time.Second, s.Failure(time.Minute), "hint is capped")
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		first  time.Duration
	}{
		{"zero policy", Policy{}, time.Second},
		{"max below base", Policy{BaseDelay: 3 * time.Second, MaxDelay: time.Second, Multiplier: 2}, 3 * time.Second},
		{"jitter ignored without mode", Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2, Jitter: 0.9}, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.policy.NewState()
			assert.Equal(t, tt.first, s.Failure(0))
		})
	}
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.DefaultConfig().Retry)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 32*time.Second, p.MaxDelay)
	assert.Equal(t, JitterUniform, p.JitterMode)
	assert.Equal(t, p, DefaultPolicy())
}
