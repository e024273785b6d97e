package registry

import (
	"sync"
	"sync/atomic"

	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// DefaultQueueSize is the delivery buffer used when none is requested.
const DefaultQueueSize = 100

// ListenerOption configures a listener at registration.
type ListenerOption func(*listenerOptions)

type listenerOptions struct {
	queueSize int
}

// WithQueueSize sets the delivery buffer size. Values below one are ignored.
func WithQueueSize(n int) ListenerOption {
	return func(o *listenerOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// Listener receives the envelopes of the names it was registered for.
// When its queue is full the oldest undelivered envelope is dropped and
// counted in Lost.
type Listener struct {
	token Token
	names Names
	epoch uint64

	mu     sync.Mutex
	queue  chan wire.Envelope
	closed bool
	err    error
	done   chan struct{}

	lost atomic.Uint64
}

func newListener(token Token, names Names, epoch uint64, queueSize int) *Listener {
	return &Listener{
		token: token,
		names: names,
		epoch: epoch,
		queue: make(chan wire.Envelope, queueSize),
		done:  make(chan struct{}),
	}
}

// Token returns the handle used to remove this listener.
func (l *Listener) Token() Token { return l.token }

// Names returns the channels and groups this listener was registered for.
func (l *Listener) Names() Names { return l.names }

// Messages returns the delivery queue. It is closed once the listener is
// removed or the registry shuts down; buffered envelopes stay readable.
func (l *Listener) Messages() <-chan wire.Envelope { return l.queue }

// Lost returns how many envelopes were dropped because the queue was full.
func (l *Listener) Lost() uint64 { return l.lost.Load() }

// Done is closed when the listener is released.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Err returns the terminal reason once Done is closed, nil before.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// deliver queues env without blocking. It reports whether env was queued
// and whether an older envelope was evicted to make room.
func (l *Listener) deliver(env wire.Envelope) (queued, dropped bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, false
	}
	for {
		select {
		case l.queue <- env:
			return true, dropped
		default:
		}
		select {
		case <-l.queue:
			dropped = true
			l.lost.Add(1)
		default:
		}
	}
}

// close releases the listener. Only the first call has an effect.
func (l *Listener) close(reason error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.closed = true
	l.err = reason
	close(l.queue)
	close(l.done)
	return true
}
