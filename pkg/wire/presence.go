package wire

import (
	"encoding/json"
	"fmt"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

// Occupant is one user present on a channel.
type Occupant struct {
	UUID  string          `json:"uuid"`
	State json.RawMessage `json:"state,omitempty"`
}

// HereNow is the occupancy of a single channel.
type HereNow struct {
	Channel   string     `json:"channel"`
	Occupancy int        `json:"occupancy"`
	Occupants []Occupant `json:"occupants"`
}

type presenceEnvelope struct {
	Status    int               `json:"status"`
	Message   string            `json:"message"`
	Service   string            `json:"service"`
	Occupancy int               `json:"occupancy"`
	UUIDs     []json.RawMessage `json:"uuids"`
	Payload   json.RawMessage   `json:"payload"`
}

// DecodeHereNow decodes a single-channel here-now response. Occupants are
// either bare UUID strings or objects carrying state.
func DecodeHereNow(channel string, body []byte) (*HereNow, error) {
	var raw presenceEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewDecodeError("here_now", err)
	}
	if raw.Status != 0 && raw.Status != 200 {
		return nil, errors.NewServerError(raw.Status, raw.Service, raw.Message)
	}

	out := &HereNow{
		Channel:   channel,
		Occupancy: raw.Occupancy,
		Occupants: make([]Occupant, 0, len(raw.UUIDs)),
	}
	for i, u := range raw.UUIDs {
		var id string
		if err := json.Unmarshal(u, &id); err == nil {
			out.Occupants = append(out.Occupants, Occupant{UUID: id})
			continue
		}
		var o Occupant
		if err := json.Unmarshal(u, &o); err != nil || o.UUID == "" {
			return nil, errors.NewEnvelopeDecodeError("here_now", i, fmt.Errorf("invalid occupant"))
		}
		out.Occupants = append(out.Occupants, o)
	}
	return out, nil
}

// DecodeSetState returns the state echoed back by a set-state call.
func DecodeSetState(body []byte) (json.RawMessage, error) {
	var raw presenceEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewDecodeError("set_state", err)
	}
	if raw.Status != 0 && raw.Status != 200 {
		return nil, errors.NewServerError(raw.Status, raw.Service, raw.Message)
	}
	return raw.Payload, nil
}

// DecodeAck checks a bare presence acknowledgement (heartbeat, leave).
func DecodeAck(op string, body []byte) error {
	var raw presenceEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return errors.NewDecodeError(op, err)
	}
	if raw.Status != 0 && raw.Status != 200 {
		return errors.NewServerError(raw.Status, raw.Service, raw.Message)
	}
	return nil
}
