package subscribe

import (
	"fmt"
	"time"

	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
)

// State is the phase of the subscribe loop.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateDispatching
	StateBackingOff
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateDispatching:
		return "dispatching"
	case StateBackingOff:
		return "backing_off"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "polling":
		*s = StatePolling
	case "dispatching":
		*s = StateDispatching
	case "backing_off":
		*s = StateBackingOff
	case "terminated":
		*s = StateTerminated
	default:
		return fmt.Errorf("unknown subscribe state %q", text)
	}
	return nil
}

// Category tells why a Status was emitted.
type Category string

const (
	CategoryConnected   Category = "connected"   // handshake succeeded
	CategoryReconnected Category = "reconnected" // a poll succeeded after failures
	CategoryBackoff     Category = "backoff"     // a poll failed and will be retried
	CategoryIdle        Category = "idle"        // nothing to subscribe to
	CategoryPaused      Category = "paused"      // rejected until the channel set changes
	CategoryMalformed   Category = "malformed"   // envelopes were skipped
	CategoryTerminated  Category = "terminated"  // the loop stopped for good
)

// Status is a loop event. Failed polls surface only here.
type Status struct {
	State    State               `json:"state"`
	Category Category            `json:"category"`
	Err      error               `json:"-"`
	Failures int                 `json:"failures"`
	Delay    time.Duration       `json:"delay"`
	Cursor   timetoken.Timetoken `json:"cursor"`
	At       time.Time           `json:"at"`
}

// Error returns the status error text, empty when there is none.
func (s Status) Error() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Stats are cumulative loop counters.
type Stats struct {
	Polls            uint64 `json:"polls"`
	Failures         uint64 `json:"failures"`
	Envelopes        uint64 `json:"envelopes"`
	Deliveries       uint64 `json:"deliveries"`
	Dropped          uint64 `json:"dropped"`
	Unmatched        uint64 `json:"unmatched"`
	SkippedEnvelopes uint64 `json:"skipped_envelopes"`
	Replays          uint64 `json:"replays"`
	Heartbeats       uint64 `json:"heartbeats"`
}
