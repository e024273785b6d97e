package wire

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

func TestDecodePublish(t *testing.T) {
	tt, err := DecodePublish("publish", []byte(`[1,"Sent","17000000000000001"]`))
	require.NoError(t, err)
	assert.Equal(t, uint64(17000000000000001), tt.Value)

	_, err = DecodePublish("publish", []byte(`[0,"Invalid Key","0"]`))
	require.Error(t, err)
	assert.True(t, errors.IsServer(err))
	assert.Contains(t, err.Error(), "Invalid Key")

	for _, body := range []string{`{}`, `[1,"Sent"]`, `[1,"Sent",17]`, `["1","Sent","1"]`} {
		_, err := DecodePublish("publish", []byte(body))
		assert.True(t, errors.IsDecode(err), body)
	}
}

func TestDecodeServerError(t *testing.T) {
	e := DecodeServerError(http.StatusForbidden, []byte(`{"status":403,"error":true,"message":"Forbidden","service":"Access Manager"}`))
	assert.Equal(t, http.StatusForbidden, e.StatusCode)
	assert.Equal(t, "Access Manager", e.Service)
	assert.False(t, e.Recoverable)
	assert.Equal(t, "Forbidden", e.Message())

	e = DecodeServerError(http.StatusBadGateway, []byte(`<html>bad gateway</html>`))
	assert.True(t, e.Recoverable)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), e.Message())

	e = DecodeServerError(http.StatusTooManyRequests, []byte("slow down"))
	assert.True(t, e.Recoverable)
	assert.Equal(t, "slow down", e.Message())
}
