// Package registry tracks which listeners want which channels and channel
// groups, and fans decoded envelopes out to them.
package registry

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for drop and lifecycle events.
func WithLogger(logger *logging.ColoredLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultQueueSize sets the queue size for listeners added without one.
func WithDefaultQueueSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.defaultQueue = n
		}
	}
}

// Registry handles listener registration and envelope fan-out.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	listeners map[Token]*Listener
	channels  map[string]map[Token]*Listener
	groups    map[string]map[Token]*Listener
	version   uint64
	closed    bool

	changed      chan struct{}
	defaultQueue int
	logger       *logging.ColoredLogger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		listeners:    make(map[Token]*Listener),
		channels:     make(map[string]map[Token]*Listener),
		groups:       make(map[string]map[Token]*Listener),
		changed:      make(chan struct{}, 1),
		defaultQueue: DefaultQueueSize,
		logger:       logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a listener for names and returns it.
func (r *Registry) Add(names Names, opts ...ListenerOption) (*Listener, error) {
	names = names.normalize()
	if names.Empty() {
		return nil, errors.NewRegistryError(errors.CodeInvalidArgument, "", "no channels or groups")
	}

	o := listenerOptions{queueSize: r.defaultQueue}
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.ErrClosed
	}
	r.version++
	l := newListener(Token(uuid.NewString()), names, r.version, o.queueSize)
	r.listeners[l.token] = l
	for _, ch := range names.Channels {
		index(r.channels, ch, l)
	}
	for _, g := range names.Groups {
		index(r.groups, g, l)
	}
	version := r.version
	r.mu.Unlock()

	r.notify()
	r.logger.ComponentDebug(logging.ComponentRegistry, "Listener added",
		zap.String("token", string(l.token)),
		zap.Strings("channels", names.Channels),
		zap.Strings("groups", names.Groups),
		zap.Uint64("version", version),
	)
	return l, nil
}

// Remove unregisters a listener and closes its queue with ErrUnsubscribed.
// A name disappears from Names once its last listener is removed.
func (r *Registry) Remove(token Token) error {
	r.mu.Lock()
	l, ok := r.listeners[token]
	if !ok {
		r.mu.Unlock()
		return errors.NewRegistryError(errors.CodeNotFound, string(token), "unknown listener")
	}
	delete(r.listeners, token)
	for _, ch := range l.names.Channels {
		unindex(r.channels, ch, token)
	}
	for _, g := range l.names.Groups {
		unindex(r.groups, g, token)
	}
	r.version++
	r.mu.Unlock()

	l.close(errors.ErrUnsubscribed)
	r.notify()
	r.logger.ComponentDebug(logging.ComponentRegistry, "Listener removed",
		zap.String("token", string(token)),
		zap.Uint64("lost", l.Lost()),
	)
	return nil
}

// Names returns the channels and groups with at least one listener, sorted.
func (r *Registry) Names() Names {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Snapshot returns Names together with the version it was read at.
func (r *Registry) Snapshot() (Names, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked(), r.version
}

func (r *Registry) namesLocked() Names {
	n := Names{}
	for ch := range r.channels {
		n.Channels = append(n.Channels, ch)
	}
	for g := range r.groups {
		n.Groups = append(n.Groups, g)
	}
	return n.normalize()
}

// Version increases on every Add and Remove.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Changed receives a value after one or more mutations. Wake-ups coalesce.
func (r *Registry) Changed() <-chan struct{} {
	return r.changed
}

// Len returns the number of live listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// Dispatch delivers env to the listeners registered for its channel or
// subscription match right now. It returns the number of listeners reached.
func (r *Registry) Dispatch(env wire.Envelope) int {
	queued, _ := r.dispatchAt(env, r.Version())
	return queued
}

// DispatchBatch delivers envs in order. Listeners registered after the call
// began receive none of the batch.
func (r *Registry) DispatchBatch(envs []wire.Envelope) DispatchStats {
	epoch := r.Version()
	stats := DispatchStats{Envelopes: len(envs)}
	for _, env := range envs {
		queued, dropped := r.dispatchAt(env, epoch)
		if queued == 0 {
			stats.Unmatched++
		}
		stats.Deliveries += queued
		stats.Dropped += dropped
	}
	return stats
}

func (r *Registry) dispatchAt(env wire.Envelope, epoch uint64) (queued, dropped int) {
	targets := r.match(env, epoch)
	for _, l := range targets {
		ok, evicted := l.deliver(env)
		if ok {
			queued++
		}
		if evicted {
			dropped++
			r.logger.ComponentDebug(logging.ComponentRegistry, "Listener queue full, dropped oldest envelope",
				zap.String("token", string(l.token)),
				zap.String("channel", env.Channel),
				zap.Uint64("lost", l.Lost()),
			)
		}
	}
	return queued, dropped
}

// match collects the listeners for env, each at most once.
func (r *Registry) match(env wire.Envelope, epoch uint64) []*Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Listener
	seen := make(map[Token]struct{})
	collect := func(set map[Token]*Listener) {
		for token, l := range set {
			if l.epoch > epoch {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, l)
		}
	}

	for i, name := range env.Targets() {
		collect(r.channels[name])
		if i > 0 {
			// a match may be a group or a wildcard channel pattern
			collect(r.groups[name])
		}
	}
	return out
}

// Close releases every listener with reason as its terminal error. Further
// Add calls fail with ErrClosed. Only the first call has an effect.
func (r *Registry) Close(reason error) {
	if reason == nil {
		reason = errors.ErrClosed
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	listeners := make([]*Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.listeners = make(map[Token]*Listener)
	r.channels = make(map[string]map[Token]*Listener)
	r.groups = make(map[string]map[Token]*Listener)
	r.version++
	r.mu.Unlock()

	for _, l := range listeners {
		l.close(reason)
	}
	r.notify()
	r.logger.ComponentInfo(logging.ComponentRegistry, "Registry closed",
		zap.Int("listeners", len(listeners)),
		zap.Error(reason),
	)
}

func (r *Registry) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func index(m map[string]map[Token]*Listener, name string, l *Listener) {
	set, ok := m[name]
	if !ok {
		set = make(map[Token]*Listener)
		m[name] = set
	}
	set[l.token] = l
}

func unindex(m map[string]map[Token]*Listener, name string, token Token) {
	set, ok := m[name]
	if !ok {
		return
	}
	delete(set, token)
	if len(set) == 0 {
		delete(m, name)
	}
}
