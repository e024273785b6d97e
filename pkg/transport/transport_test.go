package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/request"
)

func requestFor(t *testing.T, srv *httptest.Server, path string) *request.Request {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &request.Request{
		Op:     request.OpHereNow,
		Method: http.MethodGet,
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   path,
		Query:  url.Values{"uuid": {"u1"}},
	}
}

func TestExecute(t *testing.T) {
	var gotAgent, gotPath, gotUUID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotPath = r.URL.EscapedPath()
		gotUUID = r.URL.Query().Get("uuid")
		w.Write([]byte(`{"status":200}`))
	}))
	defer srv.Close()

	tr := NewHTTP(WithUserAgent("test-agent/1.0"))
	resp, err := tr.Execute(context.Background(), requestFor(t, srv, "/v2/presence/sub-key/s/channel/a%2Fb"))
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, `{"status":200}`, string(resp.Body))
	assert.Equal(t, "test-agent/1.0", gotAgent)
	assert.Equal(t, "/v2/presence/sub-key/s/channel/a%2Fb", gotPath)
	assert.Equal(t, "u1", gotUUID)
	assert.NoError(t, Check(resp))
}

func TestExecuteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status":429,"error":true,"message":"Too Many Requests","service":"Balancer"}`))
	}))
	defer srv.Close()

	resp, err := NewHTTP().Execute(context.Background(), requestFor(t, srv, "/"))
	require.NoError(t, err)
	assert.False(t, resp.OK())

	err = Check(resp)
	var se *errors.ServerError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Recoverable)
	assert.Equal(t, "Balancer", se.Service)
	assert.Equal(t, 7*time.Second, se.RetryAfter)
	assert.True(t, errors.IsRateLimit(err))
}

func TestExecuteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	req := requestFor(t, srv, "/")
	req.Timeout = 50 * time.Millisecond

	_, err := NewHTTP().Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.True(t, errors.ShouldRetry(err))
}

func TestExecuteCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewHTTP().Execute(ctx, requestFor(t, srv, "/"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.ShouldRetry(err))
}

func TestExecuteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	req := requestFor(t, srv, "/")
	srv.Close()

	_, err := NewHTTP().Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestMaxBodySize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	resp, err := NewHTTP(WithMaxBodySize(10)).Execute(context.Background(), requestFor(t, srv, "/"))
	require.NoError(t, err)
	assert.Len(t, resp.Body, 10)
}

func TestFuncAdapter(t *testing.T) {
	var called bool
	var tr Transport = Func(func(ctx context.Context, req *request.Request) (*Response, error) {
		called = true
		return &Response{StatusCode: http.StatusBadGateway, Body: []byte("<html>")}, nil
	})

	resp, err := tr.Execute(context.Background(), &request.Request{})
	require.NoError(t, err)
	assert.True(t, called)

	var se *errors.ServerError
	require.ErrorAs(t, Check(resp), &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Zero(t, se.RetryAfter)
}
