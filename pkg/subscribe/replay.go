package subscribe

import (
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// replayGuard keeps per-channel delivery order non-decreasing. An envelope
// older than the last one dispatched on the same channel and region is a
// replay and is dropped.
type replayGuard struct {
	last map[string]timetoken.Timetoken
}

func newReplayGuard() *replayGuard {
	return &replayGuard{last: make(map[string]timetoken.Timetoken)}
}

func (g *replayGuard) admit(env wire.Envelope) bool {
	key := env.Channel
	if env.Kind == wire.KindPresence {
		key = wire.PresenceChannel(env.Channel)
	}
	if prev, ok := g.last[key]; ok && env.Timetoken.Before(prev) {
		return false
	}
	g.last[key] = env.Timetoken
	return true
}

func (g *replayGuard) reset() {
	g.last = make(map[string]timetoken.Timetoken)
}
