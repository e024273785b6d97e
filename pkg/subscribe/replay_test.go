package subscribe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

func TestReplayGuard(t *testing.T) {
	g := newReplayGuard()
	at := func(channel string, region int, v uint64) wire.Envelope {
		return wire.Envelope{Channel: channel, Timetoken: timetoken.Timetoken{Region: region, Value: v}}
	}

	assert.True(t, g.admit(at("a", 1, 100)))
	assert.True(t, g.admit(at("a", 1, 100)), "equal timetokens are not replays")
	assert.False(t, g.admit(at("a", 1, 99)))
	assert.True(t, g.admit(at("b", 1, 50)), "channels are independent")
	assert.True(t, g.admit(at("a", 2, 10)), "a region change resets ordering")

	presence := at("a", 2, 5)
	presence.Kind = wire.KindPresence
	assert.True(t, g.admit(presence), "presence events are ordered separately")

	g.reset()
	assert.True(t, g.admit(at("a", 1, 1)))
}
