package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/registry"
	"github.com/DeBrosOfficial/pubsub-client/pkg/transport"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// SubscribeInput names what to subscribe to.
type SubscribeInput struct {
	Channels  []string
	Groups    []string
	QueueSize int // 0 uses subscribe.queue_size
}

// Subscription is one listener registration. Messages delivers envelopes
// until Unsubscribe or Close; a subscription cannot be restarted.
type Subscription struct {
	token    registry.Token
	listener *registry.Listener
	client   *Client
}

// Token identifies the subscription.
func (s *Subscription) Token() registry.Token { return s.token }

// Names returns the channels and groups of this subscription.
func (s *Subscription) Names() registry.Names { return s.listener.Names() }

// Messages returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) Messages() <-chan wire.Envelope { return s.listener.Messages() }

// Lost counts envelopes dropped because this subscription fell behind.
func (s *Subscription) Lost() uint64 { return s.listener.Lost() }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.listener.Done() }

// Err returns why the subscription ended: ErrUnsubscribed, ErrClosed or
// the unrecoverable error that stopped the session.
func (s *Subscription) Err() error { return s.listener.Err() }

// Unsubscribe is shorthand for Client.Unsubscribe.
func (s *Subscription) Unsubscribe() error { return s.client.Unsubscribe(s) }

// Subscribe registers a listener. The subscribe loop picks the new names up
// on its next request; no history is delivered.
func (c *Client) Subscribe(ctx context.Context, in SubscribeInput) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.closed.Load() {
		return nil, errors.ErrClosed
	}

	names := registry.Names{Channels: in.Channels, Groups: in.Groups}
	for _, ch := range names.Channels {
		if wire.IsPresenceChannel(ch) {
			return nil, errors.NewValidationError("channels", "presence channels are subscribed through the presence option", ch)
		}
	}

	var opts []registry.ListenerOption
	if in.QueueSize > 0 {
		opts = append(opts, registry.WithQueueSize(in.QueueSize))
	}
	lis, err := c.registry.Add(names, opts...)
	if err != nil {
		return nil, err
	}

	c.logger.ComponentInfo(logging.ComponentClient, "Subscribed",
		zap.String("token", string(lis.Token())),
		zap.Strings("channels", lis.Names().Channels),
		zap.Strings("groups", lis.Names().Groups),
	)
	return &Subscription{token: lis.Token(), listener: lis, client: c}, nil
}

// Unsubscribe removes sub. Names no other subscription uses are left on the
// next request; when presence is in use the bus is told right away with a
// best-effort leave.
func (c *Client) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return errors.NewValidationError("subscription", "must not be nil", nil)
	}

	before := c.registry.Names()
	if err := c.registry.Remove(sub.token); err != nil {
		return err
	}
	gone := before.Minus(c.registry.Names())

	c.logger.ComponentInfo(logging.ComponentClient, "Unsubscribed",
		zap.String("token", string(sub.token)),
		zap.Uint64("lost", sub.Lost()),
	)

	if !gone.Empty() && c.presenceEnabled() {
		c.goBackground(func() { c.leave(gone) })
	}
	return nil
}

// goBackground runs fn unless the client is closing. Close waits for it.
func (c *Client) goBackground(fn func()) bool {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		fn()
	}()
	return true
}

func (c *Client) presenceEnabled() bool {
	return c.cfg.Client.Presence || c.cfg.Subscribe.HeartbeatInterval > 0
}

func (c *Client) leave(names registry.Names) {
	req, err := c.builder.Leave(names.Channels, names.Groups)
	if err != nil {
		c.logger.ComponentWarn(logging.ComponentPresence, "Failed to build leave", zap.Error(err))
		return
	}

	timeout := c.cfg.Subscribe.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := c.transport.Execute(ctx, req)
	if err == nil {
		err = transport.Check(resp)
	}
	if err != nil {
		c.logger.ComponentWarn(logging.ComponentPresence, "Leave failed",
			zap.Strings("channels", names.Channels),
			zap.Strings("groups", names.Groups),
			zap.Error(err),
		)
		return
	}
	c.logger.ComponentDebug(logging.ComponentPresence, "Left",
		zap.Strings("channels", names.Channels),
		zap.Strings("groups", names.Groups),
	)
}
