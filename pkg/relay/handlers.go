package relay

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/httputil"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
)

// PublishRequest is the body of POST /v1/publish.
type PublishRequest struct {
	Channel string          `json:"channel"`
	Message json.RawMessage `json:"message"`
	Meta    json.RawMessage `json:"meta,omitempty"`
	Store   *bool           `json:"store,omitempty"`
	TTL     int             `json:"ttl,omitempty"`
	Signal  bool            `json:"signal,omitempty"`
}

// PublishResponse is returned by a successful publish.
type PublishResponse struct {
	Channel   string `json:"channel"`
	Timetoken string `json:"timetoken"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	h := s.backend.Health()
	code := http.StatusOK
	if h.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, h)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"client":      s.backend.Status(),
		"connections": s.connections.Load(),
	})
}

// publishHandler handles POST /v1/publish {channel, message, meta, store, ttl, signal}
func (s *Server) publishHandler(w http.ResponseWriter, r *http.Request) {
	var body PublishRequest
	if err := httputil.DecodeJSONStrict(w, r, maxPublishBody, &body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid body: expected {channel,message}")
		return
	}
	if !httputil.RequireChannel(w, body.Channel, "channel") {
		return
	}
	if len(body.Message) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	var err error
	var resp PublishResponse
	if body.Signal {
		tt, serr := s.backend.Signal(r.Context(), body.Channel, body.Message)
		resp, err = PublishResponse{Channel: body.Channel, Timetoken: tt.ValueString()}, serr
	} else {
		opts := client.PublishOptions{Store: body.Store, TTL: body.TTL}
		if len(body.Meta) > 0 {
			opts.Meta = body.Meta
		}
		tt, perr := s.backend.Publish(r.Context(), body.Channel, body.Message, opts)
		resp, err = PublishResponse{Channel: body.Channel, Timetoken: tt.ValueString()}, perr
	}
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentRelay, "Relay publish failed",
			zap.String("channel", body.Channel),
			zap.Bool("signal", body.Signal),
			zap.Error(err))
		errors.WriteHTTPError(w, err)
		return
	}

	s.logger.ComponentDebug(logging.ComponentRelay, "Relay published",
		zap.String("channel", body.Channel),
		zap.String("timetoken", resp.Timetoken))
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// hereNowHandler handles GET /v1/presence/here-now?channel=&state=
func (s *Server) hereNowHandler(w http.ResponseWriter, r *http.Request) {
	channel := httputil.QueryParam(r, "channel", "")
	if !httputil.RequireChannel(w, channel, "channel") {
		return
	}

	hn, err := s.backend.HereNow(r.Context(), channel, client.HereNowOptions{
		IncludeState: httputil.QueryParamBool(r, "state", false),
	})
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hn)
}
