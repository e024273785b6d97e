package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/request"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// PublishOptions are optional publish parameters.
type PublishOptions struct {
	Meta  any   // sent alongside the message, usable by filter expressions
	Store *bool // nil keeps the account default
	TTL   int   // storage hours; 0 keeps the account default
}

// Publish sends message to channel and returns the timetoken it was stored at.
// message is JSON encoded.
func (c *Client) Publish(ctx context.Context, channel string, message any, opts PublishOptions) (timetoken.Timetoken, error) {
	req, err := c.builder.Publish(request.PublishParams{
		Channel: channel,
		Message: message,
		Meta:    opts.Meta,
		Store:   opts.Store,
		TTL:     opts.TTL,
	})
	if err != nil {
		return timetoken.Timetoken{}, err
	}
	return c.publish(ctx, req, channel)
}

// Signal sends a small, unstored message to channel.
func (c *Client) Signal(ctx context.Context, channel string, message any) (timetoken.Timetoken, error) {
	req, err := c.builder.Signal(channel, message)
	if err != nil {
		return timetoken.Timetoken{}, err
	}
	return c.publish(ctx, req, channel)
}

func (c *Client) publish(ctx context.Context, req *request.Request, channel string) (timetoken.Timetoken, error) {
	resp, err := c.execute(ctx, req)
	if err != nil {
		c.logger.ComponentWarn(logging.ComponentPublish, "Publish failed",
			zap.String("op", req.Op),
			zap.String("channel", channel),
			zap.Error(err),
		)
		return timetoken.Timetoken{}, err
	}

	tt, err := wire.DecodePublish(req.Op, resp.Body)
	if err != nil {
		return timetoken.Timetoken{}, err
	}
	c.logger.ComponentDebug(logging.ComponentPublish, "Published",
		zap.String("op", req.Op),
		zap.String("channel", channel),
		zap.Stringer("timetoken", tt),
	)
	return tt, nil
}
