package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

func env(channel string, tt uint64) wire.Envelope {
	return wire.Envelope{Channel: channel, Timetoken: timetoken.Timetoken{Region: 1, Value: tt}}
}

func drain(l *Listener) []uint64 {
	var out []uint64
	for {
		select {
		case e, ok := <-l.Messages():
			if !ok {
				return out
			}
			out = append(out, e.Timetoken.Value)
		default:
			return out
		}
	}
}

func TestAddAndNames(t *testing.T) {
	r := New()

	_, err := r.Add(Names{Channels: []string{"b", "a", "a", ""}})
	require.NoError(t, err)
	_, err = r.Add(Names{Channels: []string{"a"}, Groups: []string{"g1"}})
	require.NoError(t, err)

	assert.Equal(t, Names{Channels: []string{"a", "b"}, Groups: []string{"g1"}}, r.Names())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, uint64(2), r.Version())
}

func TestAddRejectsEmptyNames(t *testing.T) {
	r := New()
	_, err := r.Add(Names{Channels: []string{""}})
	require.Error(t, err)
	assert.True(t, errors.IsRegistry(err))
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetErrorCode(err))
	assert.Zero(t, r.Version())
}

func TestRemove(t *testing.T) {
	r := New()
	l1, err := r.Add(Names{Channels: []string{"room1"}})
	require.NoError(t, err)
	l2, err := r.Add(Names{Channels: []string{"room1", "room2"}})
	require.NoError(t, err)

	require.NoError(t, r.Remove(l2.Token()))
	assert.Equal(t, []string{"room1"}, r.Names().Channels, "room2 lost its last listener")

	<-l2.Done()
	assert.ErrorIs(t, l2.Err(), errors.ErrUnsubscribed)
	_, open := <-l2.Messages()
	assert.False(t, open)

	err = r.Remove(l2.Token())
	require.Error(t, err)
	assert.True(t, errors.IsRegistry(err))
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, r.Remove(l1.Token()))
	assert.True(t, r.Names().Empty())
}

func TestChangedCoalesces(t *testing.T) {
	r := New()
	_, _ = r.Add(Names{Channels: []string{"a"}})
	_, _ = r.Add(Names{Channels: []string{"b"}})

	select {
	case <-r.Changed():
	default:
		t.Fatal("expected a change notification")
	}
	select {
	case <-r.Changed():
		t.Fatal("notifications should coalesce")
	default:
	}
}

func TestDispatchByChannelAndGroup(t *testing.T) {
	r := New()
	byChannel, _ := r.Add(Names{Channels: []string{"room1"}})
	byGroup, _ := r.Add(Names{Groups: []string{"lobby"}})
	both, _ := r.Add(Names{Channels: []string{"room1"}, Groups: []string{"lobby"}})
	other, _ := r.Add(Names{Channels: []string{"room2"}})

	e := env("room1", 100)
	e.SubscriptionMatch = "lobby"
	assert.Equal(t, 3, r.Dispatch(e))

	assert.Equal(t, []uint64{100}, drain(byChannel))
	assert.Equal(t, []uint64{100}, drain(byGroup))
	assert.Equal(t, []uint64{100}, drain(both), "delivered once despite two matches")
	assert.Empty(t, drain(other))
}

func TestDispatchByWildcardAndSelfMatch(t *testing.T) {
	r := New()
	exact, _ := r.Add(Names{Channels: []string{"news.sports"}})
	wildcard, _ := r.Add(Names{Channels: []string{"news.*"}})

	e := env("news.sports", 7)
	e.SubscriptionMatch = "news.*"
	assert.Equal(t, 2, r.Dispatch(e))
	assert.Equal(t, []uint64{7}, drain(exact))
	assert.Equal(t, []uint64{7}, drain(wildcard))

	e = env("news.sports", 8)
	e.SubscriptionMatch = "news.sports"
	assert.Equal(t, 1, r.Dispatch(e), "a match naming the channel itself adds no target")
	assert.Equal(t, []uint64{8}, drain(exact))
	assert.Empty(t, drain(wildcard))
}

func TestDispatchBatchSkipsLateJoiners(t *testing.T) {
	r := New()
	early, _ := r.Add(Names{Channels: []string{"room1"}})
	epoch := r.Version()

	late, _ := r.Add(Names{Channels: []string{"room1"}})
	queued, _ := r.dispatchAt(env("room1", 100), epoch)
	assert.Equal(t, 1, queued)

	assert.Equal(t, []uint64{100}, drain(early))
	assert.Empty(t, drain(late))

	stats := r.DispatchBatch([]wire.Envelope{env("room1", 105), env("nobody", 106)})
	assert.Equal(t, DispatchStats{Envelopes: 2, Deliveries: 2, Unmatched: 1}, stats)
	assert.Equal(t, []uint64{105}, drain(late))
}

func TestDropOldestIsolation(t *testing.T) {
	r := New()
	slow, _ := r.Add(Names{Channels: []string{"room1"}}, WithQueueSize(2))
	fast, _ := r.Add(Names{Channels: []string{"room1"}}, WithQueueSize(10))

	stats := r.DispatchBatch([]wire.Envelope{env("room1", 1), env("room1", 2), env("room1", 3), env("room1", 4)})
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, 8, stats.Deliveries)

	assert.Equal(t, []uint64{3, 4}, drain(slow))
	assert.Equal(t, uint64(2), slow.Lost())
	assert.Equal(t, []uint64{1, 2, 3, 4}, drain(fast))
	assert.Zero(t, fast.Lost())
}

func TestNoDeliveryAfterRemove(t *testing.T) {
	r := New()
	l, _ := r.Add(Names{Channels: []string{"room1"}})
	require.NoError(t, r.Remove(l.Token()))

	assert.Zero(t, r.Dispatch(env("room1", 1)))
	queued, dropped := l.deliver(env("room1", 2))
	assert.False(t, queued)
	assert.False(t, dropped)
}

func TestCloseReleasesEachListenerOnce(t *testing.T) {
	r := New()
	var listeners []*Listener
	for i := 0; i < 5; i++ {
		l, err := r.Add(Names{Channels: []string{fmt.Sprintf("ch-%d", i)}})
		require.NoError(t, err)
		listeners = append(listeners, l)
	}
	require.NoError(t, r.Remove(listeners[0].Token()))

	r.Close(nil)
	r.Close(fmt.Errorf("second close"))

	assert.ErrorIs(t, listeners[0].Err(), errors.ErrUnsubscribed)
	for _, l := range listeners[1:] {
		<-l.Done()
		assert.ErrorIs(t, l.Err(), errors.ErrClosed)
		assert.False(t, l.close(errors.ErrClosed), "already released")
	}

	assert.True(t, r.Names().Empty())
	_, err := r.Add(Names{Channels: []string{"late"}})
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.True(t, errors.IsNotFound(r.Remove(listeners[1].Token())))
}

func TestConcurrentMutationNetEffect(t *testing.T) {
	r := New(WithDefaultQueueSize(1))

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// dispatch continuously while the registry is mutated
	var dispatchWG sync.WaitGroup
	dispatchWG.Add(1)
	go func() {
		defer dispatchWG.Done()
		var tt uint64
		for {
			select {
			case <-stop:
				return
			default:
			}
			tt++
			r.Dispatch(env(fmt.Sprintf("w%d-0", tt%workers), tt))
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l, err := r.Add(Names{Channels: []string{fmt.Sprintf("w%d-%d", w, i)}})
				if err != nil {
					t.Error(err)
					return
				}
				if i%2 == 1 {
					if err := r.Remove(l.Token()); err != nil {
						t.Error(err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()
	close(stop)
	dispatchWG.Wait()

	var want []string
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i += 2 {
			want = append(want, fmt.Sprintf("w%d-%d", w, i))
		}
	}
	want = uniqueSorted(want)

	assert.Equal(t, want, r.Names().Channels)
	assert.Equal(t, workers*perWorker/2, r.Len())
	assert.Equal(t, uint64(workers*perWorker+workers*perWorker/2), r.Version())
}

func TestNamesHelpers(t *testing.T) {
	a := Names{Channels: []string{"a", "b"}, Groups: []string{"g"}}
	b := Names{Channels: []string{"b"}}

	assert.Equal(t, Names{Channels: []string{"a"}, Groups: []string{"g"}}, a.Minus(b))
	assert.True(t, a.Equal(Names{Channels: []string{"a", "b"}, Groups: []string{"g"}}))
	assert.False(t, a.Equal(b))
	assert.True(t, Names{}.Empty())
}
