// Package timetoken implements the stream cursor used by the message bus.
//
// A Timetoken is an opaque position in the remote event log. The client never
// interprets it beyond comparing two tokens of the same region and forwarding
// the latest one on the next subscribe request.
package timetoken

import (
	"fmt"
	"strconv"
	"strings"
)

// Timetoken is a position in the remote event log
type Timetoken struct {
	Region int    `json:"r"`
	Value  uint64 `json:"t"`
}

// Zero is the handshake position: no events observed yet.
var Zero = Timetoken{}

// Parse builds a Timetoken from the decimal string the service sends
func Parse(value string, region int) (Timetoken, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timetoken{}, fmt.Errorf("empty timetoken")
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return Timetoken{}, fmt.Errorf("invalid timetoken %q: %w", value, err)
	}
	if region < 0 {
		return Timetoken{}, fmt.Errorf("invalid timetoken region %d", region)
	}
	return Timetoken{Region: region, Value: v}, nil
}

// IsZero reports whether t is the handshake position.
func (t Timetoken) IsZero() bool {
	return t.Value == 0
}

// Compare orders t against other. The second result is false when the two
// tokens come from different regions and cannot be ordered.
func (t Timetoken) Compare(other Timetoken) (int, bool) {
	if t.Region != other.Region {
		return 0, false
	}
	switch {
	case t.Value < other.Value:
		return -1, true
	case t.Value > other.Value:
		return 1, true
	default:
		return 0, true
	}
}

// Before reports whether t precedes other in the same region.
func (t Timetoken) Before(other Timetoken) bool {
	c, ok := t.Compare(other)
	return ok && c < 0
}

// ValueString returns the value in the decimal form used on the wire.
func (t Timetoken) ValueString() string {
	return strconv.FormatUint(t.Value, 10)
}

// RegionString returns the region in the form used on the wire.
func (t Timetoken) RegionString() string {
	return strconv.Itoa(t.Region)
}

func (t Timetoken) String() string {
	return fmt.Sprintf("%d@%d", t.Value, t.Region)
}
