package client

import (
	"context"
	"encoding/json"

	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// HereNowOptions are optional here-now parameters.
type HereNowOptions struct {
	IncludeState bool
}

// SetPresenceState attaches state to this client's presence on channel and
// returns the state the bus stored.
func (c *Client) SetPresenceState(ctx context.Context, channel string, state any) (json.RawMessage, error) {
	req, err := c.builder.SetState(channel, state)
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return wire.DecodeSetState(resp.Body)
}

// HereNow returns who is currently present on channel.
func (c *Client) HereNow(ctx context.Context, channel string, opts HereNowOptions) (*wire.HereNow, error) {
	req, err := c.builder.HereNow(channel, opts.IncludeState)
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return wire.DecodeHereNow(channel, resp.Body)
}
