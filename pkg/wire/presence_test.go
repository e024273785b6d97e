package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

func TestDecodeHereNow(t *testing.T) {
	hn, err := DecodeHereNow("room1", []byte(`{"status":200,"message":"OK","occupancy":2,"uuids":["alice","bob"],"service":"Presence"}`))
	require.NoError(t, err)
	assert.Equal(t, "room1", hn.Channel)
	assert.Equal(t, 2, hn.Occupancy)
	assert.Equal(t, []Occupant{{UUID: "alice"}, {UUID: "bob"}}, hn.Occupants)

	hn, err = DecodeHereNow("room1", []byte(`{"status":200,"occupancy":1,"uuids":[{"uuid":"alice","state":{"mood":"ok"}}]}`))
	require.NoError(t, err)
	require.Len(t, hn.Occupants, 1)
	assert.JSONEq(t, `{"mood":"ok"}`, string(hn.Occupants[0].State))

	_, err = DecodeHereNow("room1", []byte(`{"status":200,"occupancy":1,"uuids":[42]}`))
	assert.True(t, errors.IsDecode(err))

	_, err = DecodeHereNow("room1", []byte(`{"status":403,"message":"Forbidden","service":"Access Manager"}`))
	assert.True(t, errors.IsServer(err))
}

func TestDecodeSetState(t *testing.T) {
	state, err := DecodeSetState([]byte(`{"status":200,"message":"OK","payload":{"mood":"ok"},"service":"Presence"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"mood":"ok"}`, string(state))

	_, err = DecodeSetState([]byte(`nope`))
	assert.True(t, errors.IsDecode(err))
}

func TestDecodeAck(t *testing.T) {
	require.NoError(t, DecodeAck("heartbeat", []byte(`{"status":200,"message":"OK","service":"Presence"}`)))
	assert.True(t, errors.IsServer(DecodeAck("leave", []byte(`{"status":400,"message":"Invalid"}`))))
}
