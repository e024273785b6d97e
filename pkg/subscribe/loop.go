// Package subscribe runs the long-poll loop that keeps a client's channel set
// subscribed, advances the stream cursor and fans envelopes out to listeners.
package subscribe

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/backoff"
	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/registry"
	"github.com/DeBrosOfficial/pubsub-client/pkg/request"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/transport"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// Requester builds the requests the loop sends. *request.Builder satisfies it.
type Requester interface {
	Subscribe(p request.SubscribeParams) (*request.Request, error)
	Heartbeat(channels, groups []string) (*request.Request, error)
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock driving backoff and heartbeat timers.
func WithClock(clk clock.Clock) Option {
	return func(l *Loop) {
		if clk != nil {
			l.clock = clk
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.ColoredLogger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPolicy sets the retry policy.
func WithPolicy(p backoff.Policy) Option {
	return func(l *Loop) { l.policy = p }
}

// WithSkipMalformed controls whether a bad envelope is skipped (true) or
// fails its whole batch (false).
func WithSkipMalformed(skip bool) Option {
	return func(l *Loop) { l.skipMalformed = skip }
}

// WithHeartbeat enables presence heartbeats every interval. Zero disables.
func WithHeartbeat(interval time.Duration) Option {
	return func(l *Loop) { l.heartbeat = interval }
}

// WithStatusBuffer sizes the status channel. Events beyond it are dropped.
func WithStatusBuffer(n int) Option {
	return func(l *Loop) {
		if n >= 0 {
			l.statusBuffer = n
		}
	}
}

// Loop owns the cursor and the retry state of one session. Exactly one
// goroutine mutates them; the accessors return snapshots.
type Loop struct {
	reg       *registry.Registry
	requester Requester
	transport transport.Transport

	clock         clock.Clock
	logger        *logging.ColoredLogger
	policy        backoff.Policy
	skipMalformed bool
	heartbeat     time.Duration
	statusBuffer  int

	mu         sync.RWMutex
	state      State
	cursor     timetoken.Timetoken
	stats      Stats
	lastStatus Status
	err        error

	status    chan Status
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a loop over reg. It does nothing until Start.
func New(reg *registry.Registry, requester Requester, tr transport.Transport, opts ...Option) *Loop {
	l := &Loop{
		reg:           reg,
		requester:     requester,
		transport:     tr,
		clock:         clock.New(),
		logger:        logging.NewNopLogger(),
		policy:        backoff.DefaultPolicy(),
		skipMalformed: true,
		statusBuffer:  32,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.status = make(chan Status, l.statusBuffer)
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.lastStatus = Status{State: StateIdle, Category: CategoryIdle}
	return l
}

// Start launches the loop goroutine and, when enabled, the heartbeater.
// Calls after the first are no-ops.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.run()
		}()
		if l.heartbeat > 0 {
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				l.runHeartbeat()
			}()
		}
		go func() {
			l.wg.Wait()
			close(l.status)
			close(l.done)
		}()
	})
}

// Close stops the loop, interrupting any in-flight poll or backoff wait, and
// releases every listener with ErrClosed. It is idempotent.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		l.cancel()
		// a loop that never started still has to release its listeners
		l.startOnce.Do(func() {
			close(l.status)
			close(l.done)
		})
		<-l.done
		l.reg.Close(errors.ErrClosed)
		l.setState(StateTerminated)
	})
	return nil
}

// Done is closed once the loop goroutines have exited.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Err returns the error that terminated the session, nil for a plain Close.
func (l *Loop) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// State returns the current phase.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Cursor returns the last committed position.
func (l *Loop) Cursor() timetoken.Timetoken {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor
}

// Stats returns a copy of the counters.
func (l *Loop) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

// LastStatus returns the most recent status event.
func (l *Loop) LastStatus() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastStatus
}

// Status returns the event channel. It is closed when the loop exits.
func (l *Loop) Status() <-chan Status { return l.status }

func (l *Loop) run() {
	retry := l.policy.NewState()
	guard := newReplayGuard()

	var (
		paused        bool
		pausedVersion uint64
	)

	for {
		if l.ctx.Err() != nil {
			return
		}

		names, version := l.reg.Snapshot()
		if paused && version != pausedVersion {
			paused = false
		}
		if names.Empty() || paused {
			if names.Empty() {
				l.goIdle(retry, guard)
			}
			select {
			case <-l.ctx.Done():
				return
			case <-l.reg.Changed():
			}
			continue
		}

		l.setState(StatePolling)
		cursor := l.Cursor()
		req, err := l.requester.Subscribe(request.SubscribeParams{
			Channels: names.Channels,
			Groups:   names.Groups,
			Cursor:   cursor,
		})
		if err != nil {
			l.terminate(err)
			return
		}

		resp, err := l.poll(req)
		if l.ctx.Err() != nil {
			return
		}
		if err != nil {
			switch {
			case errors.IsSigning(err):
				l.terminate(err)
				return
			case errors.ShouldRetry(err):
				if !l.backoff(retry, err) {
					return
				}
			default:
				paused, pausedVersion = true, version
				retry.Success()
				l.logger.ComponentError(logging.ComponentSubscribe, "Subscribe rejected, pausing until the channel set changes",
					zap.Strings("channels", names.Channels),
					zap.Strings("groups", names.Groups),
					zap.Error(err),
				)
				l.setState(StateIdle)
				l.emit(Status{Category: CategoryPaused, Err: err})
			}
			continue
		}

		recovered := retry.Failing()
		failures := retry.ConsecutiveFailures
		retry.Success()
		l.dispatch(resp, guard)

		switch {
		case cursor.IsZero():
			l.logger.ComponentInfo(logging.ComponentSubscribe, "Subscribed",
				zap.Strings("channels", names.Channels),
				zap.Strings("groups", names.Groups),
				zap.Stringer("cursor", resp.Cursor),
			)
			l.emit(Status{Category: CategoryConnected})
		case recovered:
			l.logger.ComponentInfo(logging.ComponentSubscribe, "Reconnected",
				zap.Int("failures", failures),
				zap.Stringer("cursor", resp.Cursor),
			)
			l.emit(Status{Category: CategoryReconnected, Failures: failures})
		}
	}
}

// poll performs one request and decodes the batch.
func (l *Loop) poll(req *request.Request) (*wire.SubscribeResponse, error) {
	l.mu.Lock()
	l.stats.Polls++
	l.mu.Unlock()

	resp, err := l.transport.Execute(l.ctx, req)
	if err != nil {
		var typed errors.Error
		if l.ctx.Err() == nil && !stderrors.As(err, &typed) {
			err = errors.NewTransportError(req.Op, err)
		}
		return nil, err
	}
	if err := transport.Check(resp); err != nil {
		return nil, err
	}

	batch, err := wire.DecodeSubscribe(resp.Body, wire.DecodeOptions{SkipMalformed: l.skipMalformed})
	if err != nil {
		return nil, err
	}
	if batch.Skipped > 0 {
		l.mu.Lock()
		l.stats.SkippedEnvelopes += uint64(batch.Skipped)
		l.mu.Unlock()
		l.logger.ComponentWarn(logging.ComponentSubscribe, "Skipped malformed envelopes",
			zap.Int("count", batch.Skipped),
			zap.Error(stderrors.Join(batch.SkipErrors...)),
		)
		l.emit(Status{Category: CategoryMalformed, Err: batch.SkipErrors[0]})
	}
	return batch, nil
}

// dispatch fans the batch out in timetoken order, then commits the cursor.
func (l *Loop) dispatch(batch *wire.SubscribeResponse, guard *replayGuard) {
	l.setState(StateDispatching)

	envs := batch.Envelopes
	sort.SliceStable(envs, func(i, j int) bool {
		return envs[i].Timetoken.Value < envs[j].Timetoken.Value
	})

	fresh := envs[:0]
	var replays uint64
	for _, env := range envs {
		if !guard.admit(env) {
			replays++
			continue
		}
		fresh = append(fresh, env)
	}
	if replays > 0 {
		l.logger.ComponentDebug(logging.ComponentSubscribe, "Dropped replayed envelopes",
			zap.Uint64("count", replays),
		)
	}

	ds := l.reg.DispatchBatch(fresh)

	l.mu.Lock()
	l.cursor = batch.Cursor
	l.stats.Envelopes += uint64(ds.Envelopes)
	l.stats.Deliveries += uint64(ds.Deliveries)
	l.stats.Dropped += uint64(ds.Dropped)
	l.stats.Unmatched += uint64(ds.Unmatched)
	l.stats.Replays += replays
	l.mu.Unlock()
}

// backoff waits out the delay after a failed poll with the same cursor.
// A change in the channel set does not shorten the wait unless the set
// became empty. It returns false when the loop is shutting down.
func (l *Loop) backoff(retry *backoff.RetryState, err error) bool {
	var hint time.Duration
	var se *errors.ServerError
	if stderrors.As(err, &se) {
		hint = se.RetryAfter
	}
	delay := retry.Failure(hint)

	l.mu.Lock()
	l.stats.Failures++
	l.mu.Unlock()

	l.logger.ComponentWarn(logging.ComponentSubscribe, "Subscribe failed, backing off",
		zap.Int("failures", retry.ConsecutiveFailures),
		zap.Duration("delay", delay),
		zap.Error(err),
	)

	timer := l.clock.Timer(delay)
	defer timer.Stop()

	l.setState(StateBackingOff)
	l.emit(Status{Category: CategoryBackoff, Err: err, Failures: retry.ConsecutiveFailures, Delay: delay})

	for {
		select {
		case <-l.ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-l.reg.Changed():
			if l.reg.Names().Empty() {
				return true
			}
		}
	}
}

// goIdle parks the session. The cursor is reset so the next subscribe
// starts with a fresh handshake instead of replaying history.
func (l *Loop) goIdle(retry *backoff.RetryState, guard *replayGuard) {
	// A pause also leaves the loop idle with a zero cursor; it still has to be
	// replaced by an idle status once the channel set empties.
	if l.State() == StateIdle && l.Cursor().IsZero() && l.LastStatus().Category != CategoryPaused {
		return
	}
	retry.Success()
	guard.reset()

	l.mu.Lock()
	l.cursor = timetoken.Zero
	l.mu.Unlock()

	l.setState(StateIdle)
	l.logger.ComponentDebug(logging.ComponentSubscribe, "No channels, idle")
	l.emit(Status{Category: CategoryIdle})
}

// terminate ends the session on an unrecoverable error. Listeners receive
// err as their terminal notification.
func (l *Loop) terminate(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()

	l.logger.ComponentError(logging.ComponentSubscribe, "Subscribe loop terminated", zap.Error(err))
	l.reg.Close(err)
	l.setState(StateTerminated)
	l.emit(Status{Category: CategoryTerminated, Err: err})
	l.cancel()
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	prev := l.state
	if prev != StateTerminated {
		l.state = s
	}
	l.mu.Unlock()
}

// emit records st and offers it to the status channel without blocking.
func (l *Loop) emit(st Status) {
	l.mu.Lock()
	st.State = l.state
	st.Cursor = l.cursor
	st.At = l.clock.Now()
	l.lastStatus = st
	l.mu.Unlock()

	select {
	case l.status <- st:
	default:
	}
}
