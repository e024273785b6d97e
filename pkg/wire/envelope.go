// Package wire decodes the JSON bodies returned by the message bus.
package wire

import (
	"encoding/json"
	"strings"

	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
)

// PresenceSuffix marks the companion channel carrying presence events.
const PresenceSuffix = "-pnpres"

// Kind classifies an envelope
type Kind int

const (
	KindMessage Kind = iota
	KindSignal
	KindObjects
	KindAction
	KindFile
	KindPresence
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindSignal:
		return "signal"
	case KindObjects:
		return "objects"
	case KindAction:
		return "action"
	case KindFile:
		return "file"
	case KindPresence:
		return "presence"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind appear as a string in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name. Names this client does not know decode
// as KindUnknown so newer relays stay readable.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "message":
		*k = KindMessage
	case "signal":
		*k = KindSignal
	case "objects":
		*k = KindObjects
	case "action":
		*k = KindAction
	case "file":
		*k = KindFile
	case "presence":
		*k = KindPresence
	default:
		*k = KindUnknown
	}
	return nil
}

// kindFromWire maps the numeric message type sent by the service.
func kindFromWire(t int) Kind {
	switch t {
	case 0:
		return KindMessage
	case 1:
		return KindSignal
	case 2:
		return KindObjects
	case 3:
		return KindAction
	case 4:
		return KindFile
	default:
		return KindUnknown
	}
}

// Envelope is one delivered event. It is immutable once decoded.
type Envelope struct {
	Channel           string              `json:"channel"`
	SubscriptionMatch string              `json:"subscription,omitempty"` // group or wildcard that matched
	Timetoken         timetoken.Timetoken `json:"timetoken"`
	Kind              Kind                `json:"kind"`
	WireType          int                 `json:"wire_type,omitempty"` // raw type when Kind is KindUnknown
	Payload           json.RawMessage     `json:"payload,omitempty"`
	Metadata          json.RawMessage     `json:"meta,omitempty"`
	Publisher         string              `json:"publisher,omitempty"`
	Presence          *PresenceEvent      `json:"presence,omitempty"`
}

// Targets returns the registry names this envelope may be delivered to.
func (e Envelope) Targets() []string {
	if e.SubscriptionMatch == "" || e.SubscriptionMatch == e.Channel {
		return []string{e.Channel}
	}
	return []string{e.Channel, e.SubscriptionMatch}
}

// PresenceEvent is the decoded payload of a presence envelope
type PresenceEvent struct {
	Action    string          `json:"action"` // join, leave, timeout, state-change, interval
	UUID      string          `json:"uuid,omitempty"`
	Occupancy int             `json:"occupancy"`
	Timestamp int64           `json:"timestamp,omitempty"`
	State     json.RawMessage `json:"data,omitempty"`
	Join      []string        `json:"join,omitempty"`
	Leave     []string        `json:"leave,omitempty"`
	Timeout   []string        `json:"timeout,omitempty"`
}

// IsPresenceChannel reports whether name is a presence companion channel.
func IsPresenceChannel(name string) bool {
	return strings.HasSuffix(name, PresenceSuffix) && len(name) > len(PresenceSuffix)
}

// PresenceChannel returns the presence companion of name.
func PresenceChannel(name string) string {
	return name + PresenceSuffix
}

// BaseChannel strips the presence suffix, if any.
func BaseChannel(name string) string {
	if IsPresenceChannel(name) {
		return strings.TrimSuffix(name, PresenceSuffix)
	}
	return name
}
