package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProxy(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"socks5://127.0.0.1:9050", false},
		{"http://proxy.internal:3128", false},
		{"https://user:pw@proxy.internal", false},
		{"ftp://proxy.internal", true},
		{"socks5://", true},
		{"::not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseProxy(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewProxiedClient(t *testing.T) {
	c, err := NewProxiedClient("http://proxy.internal:3128")
	require.NoError(t, err)
	tr := c.Transport.(*http.Transport)
	require.NotNil(t, tr.Proxy)
	req, _ := http.NewRequest(http.MethodGet, "https://ps.pndsn.com/time/0", nil)
	u, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", u.Host)

	c, err = NewProxiedClient("socks5://127.0.0.1:9050")
	require.NoError(t, err)
	tr = c.Transport.(*http.Transport)
	assert.Nil(t, tr.Proxy)
	assert.NotNil(t, tr.DialContext)
}

func TestIsLocal(t *testing.T) {
	assert.True(t, isLocal("127.0.0.1:80"))
	assert.True(t, isLocal("localhost:443"))
	assert.True(t, isLocal("10.1.2.3:80"))
	assert.True(t, isLocal("[::1]:80"))
	assert.False(t, isLocal("ps.pndsn.com:443"))
	assert.False(t, isLocal("8.8.8.8:53"))
}
