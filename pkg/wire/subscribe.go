package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
)

// DecodeOptions controls how malformed envelopes are treated.
type DecodeOptions struct {
	// SkipMalformed drops envelopes that fail to decode and counts them.
	// When false the first bad envelope fails the whole batch.
	SkipMalformed bool
}

// SubscribeResponse is a decoded long-poll batch.
type SubscribeResponse struct {
	Cursor    timetoken.Timetoken
	Envelopes []Envelope
	Skipped   int
	// SkipErrors holds one error per skipped envelope.
	SkipErrors []error
}

type wireToken struct {
	T json.RawMessage `json:"t"`
	R int             `json:"r"`
}

type wireMessage struct {
	Shard        string          `json:"a"`
	Flags        int             `json:"f"`
	Issuer       string          `json:"i"`
	Publish      *wireToken      `json:"p"`
	SubscribeKey string          `json:"k"`
	Channel      string          `json:"c"`
	Route        string          `json:"b"`
	Data         json.RawMessage `json:"d"`
	Meta         json.RawMessage `json:"u"`
	Type         *int            `json:"e"`
}

type wireSubscribe struct {
	Token    *wireToken        `json:"t"`
	Messages []json.RawMessage `json:"m"`
}

// DecodeSubscribe decodes a subscribe response body. A body that is not a
// subscribe batch at all, or that lacks a cursor, is a batch-level
// DecodeError.
func DecodeSubscribe(body []byte, opts DecodeOptions) (*SubscribeResponse, error) {
	var raw wireSubscribe
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewDecodeError("subscribe", err)
	}
	if raw.Token == nil {
		return nil, errors.NewDecodeError("subscribe", fmt.Errorf("missing cursor"))
	}
	cursor, err := raw.Token.timetoken()
	if err != nil {
		return nil, errors.NewDecodeError("subscribe", fmt.Errorf("cursor: %w", err))
	}

	resp := &SubscribeResponse{
		Cursor:    cursor,
		Envelopes: make([]Envelope, 0, len(raw.Messages)),
	}
	for i, m := range raw.Messages {
		env, err := decodeEnvelope(m)
		if err != nil {
			derr := errors.NewEnvelopeDecodeError("subscribe", i, err)
			if !opts.SkipMalformed {
				return nil, derr
			}
			resp.Skipped++
			resp.SkipErrors = append(resp.SkipErrors, derr)
			continue
		}
		resp.Envelopes = append(resp.Envelopes, env)
	}
	return resp, nil
}

func (w *wireToken) timetoken() (timetoken.Timetoken, error) {
	if len(w.T) == 0 {
		return timetoken.Timetoken{}, fmt.Errorf("missing value")
	}
	// the service sends a string; accept a bare number too
	s := strings.Trim(string(w.T), `"`)
	return timetoken.Parse(s, w.R)
}

func decodeEnvelope(data json.RawMessage) (Envelope, error) {
	var m wireMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return Envelope{}, err
	}
	if m.Channel == "" {
		return Envelope{}, fmt.Errorf("missing channel")
	}
	if m.Publish == nil {
		return Envelope{}, fmt.Errorf("missing publish timetoken")
	}
	tt, err := m.Publish.timetoken()
	if err != nil {
		return Envelope{}, fmt.Errorf("publish timetoken: %w", err)
	}

	env := Envelope{
		Channel:   m.Channel,
		Timetoken: tt,
		Payload:   m.Data,
		Metadata:  m.Meta,
		Publisher: m.Issuer,
	}
	if m.Route != "" && m.Route != m.Channel {
		env.SubscriptionMatch = m.Route
	}
	if m.Type != nil {
		env.Kind = kindFromWire(*m.Type)
		if env.Kind == KindUnknown {
			env.WireType = *m.Type
		}
	}

	if IsPresenceChannel(m.Channel) {
		var p PresenceEvent
		if err := json.Unmarshal(m.Data, &p); err != nil {
			return Envelope{}, fmt.Errorf("presence payload: %w", err)
		}
		if p.Action == "" {
			return Envelope{}, fmt.Errorf("presence payload: missing action")
		}
		env.Kind = KindPresence
		env.Presence = &p
		env.Channel = BaseChannel(m.Channel)
		if env.SubscriptionMatch != "" {
			env.SubscriptionMatch = BaseChannel(env.SubscriptionMatch)
			if env.SubscriptionMatch == env.Channel {
				env.SubscriptionMatch = ""
			}
		}
	}
	return env, nil
}
