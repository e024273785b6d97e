package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/httputil"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	maxFrameSize = 64 << 10
)

// Frame types exchanged on the subscribe socket.
const (
	FrameMessage   = "message"
	FramePublish   = "publish"
	FramePublished = "published"
	FramePing      = "ping"
	FrameError     = "error"
	FrameClosed    = "closed"
)

// Frame is one JSON text frame on the subscribe socket. Server frames carry
// Envelope, Timetoken or Error; client frames carry Channel and Message.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Envelope  *wire.Envelope  `json:"envelope,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Timetoken string          `json:"timetoken,omitempty"`
	Lost      uint64          `json:"lost,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// wsConn serializes writes to a websocket connection.
type wsConn struct {
	conn *websocket.Conn
	id   string
	mu   sync.Mutex
}

func (c *wsConn) writeFrame(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) writeControl(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
}

// websocketHandler upgrades to WS, subscribes to the requested channels and
// groups, and forwards envelopes to the peer. Publish frames sent by the peer
// are published through the backend.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	channels := httputil.QueryList(r, "channel")
	groups := httputil.QueryList(r, "group")
	if !httputil.RequireChannels(w, channels, groups) {
		return
	}

	sub, err := s.backend.Subscribe(r.Context(), client.SubscribeInput{Channels: channels, Groups: groups})
	if err != nil {
		errors.WriteHTTPError(w, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentRelay, "WebSocket upgrade failed", zap.Error(err))
		_ = s.backend.Unsubscribe(sub)
		return
	}
	conn.SetReadLimit(maxFrameSize)
	ws := &wsConn{conn: conn, id: uuid.NewString()}

	s.connections.Add(1)
	s.logger.ComponentInfo(logging.ComponentRelay, "WebSocket subscriber connected",
		zap.String("conn_id", ws.id),
		zap.String("token", string(sub.Token())),
		zap.Strings("channels", channels),
		zap.Strings("groups", groups),
		zap.Int64("connections", s.connections.Load()))

	defer func() {
		if err := s.backend.Unsubscribe(sub); err != nil && !errors.IsNotFound(err) {
			s.logger.ComponentWarn(logging.ComponentRelay, "Unsubscribe failed",
				zap.String("conn_id", ws.id), zap.Error(err))
		}
		_ = conn.Close()
		s.connections.Add(-1)
		s.logger.ComponentInfo(logging.ComponentRelay, "WebSocket subscriber disconnected",
			zap.String("conn_id", ws.id),
			zap.Uint64("lost", sub.Lost()),
			zap.Int64("connections", s.connections.Load()))
	}()

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return s.writerLoop(ctx, ws, sub) })
	g.Go(func() error { return s.readerLoop(ctx, ws) })
	if err := g.Wait(); err != nil && !isNormalClose(err) {
		s.logger.ComponentDebug(logging.ComponentRelay, "WebSocket session ended",
			zap.String("conn_id", ws.id), zap.Error(err))
	}
}

// writerLoop forwards envelopes until the subscription ends or the peer goes away.
func (s *Server) writerLoop(ctx context.Context, ws *wsConn, sub *client.Subscription) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-sub.Messages():
			if !ok {
				f := Frame{Type: FrameClosed, Lost: sub.Lost()}
				if err := sub.Err(); err != nil {
					f.Error = err.Error()
				}
				_ = ws.writeFrame(f)
				_ = ws.writeControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"))
				return errSessionEnded
			}
			if err := ws.writeFrame(Frame{Type: FrameMessage, Envelope: &env, Lost: sub.Lost()}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := ws.writeControl(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readerLoop handles frames sent by the peer. Reading also drives close and
// pong handling, so it runs for the whole session.
func (s *Server) readerLoop(ctx context.Context, ws *wsConn) error {
	stop := context.AfterFunc(ctx, func() { _ = ws.conn.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		var f Frame
		if err := ws.conn.ReadJSON(&f); err != nil {
			if isBadFrame(err) {
				_ = ws.writeFrame(Frame{Type: FrameError, Error: "invalid frame"})
				continue
			}
			return err
		}

		switch f.Type {
		case FramePing:
		case FramePublish:
			s.relayPublish(ctx, ws, f)
		default:
			_ = ws.writeFrame(Frame{Type: FrameError, ID: f.ID, Error: "unknown frame type"})
		}
	}
}

func (s *Server) relayPublish(ctx context.Context, ws *wsConn, f Frame) {
	if !httputil.ValidateChannelName(f.Channel) || len(f.Message) == 0 {
		_ = ws.writeFrame(Frame{Type: FrameError, ID: f.ID, Error: "publish requires channel and message"})
		return
	}
	tt, err := s.backend.Publish(ctx, f.Channel, f.Message, client.PublishOptions{})
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentRelay, "WebSocket publish failed",
			zap.String("conn_id", ws.id),
			zap.String("channel", f.Channel),
			zap.Error(err))
		_ = ws.writeFrame(Frame{Type: FrameError, ID: f.ID, Channel: f.Channel, Error: err.Error()})
		return
	}
	_ = ws.writeFrame(Frame{Type: FramePublished, ID: f.ID, Channel: f.Channel, Timetoken: tt.ValueString()})
}
