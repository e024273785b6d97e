package subscribe

import (
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/transport"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// runHeartbeat announces presence for the current channel set every
// interval. Failures are logged and otherwise ignored.
func (l *Loop) runHeartbeat() {
	ticker := l.clock.Ticker(l.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.sendHeartbeat()
		}
	}
}

func (l *Loop) sendHeartbeat() {
	names := l.reg.Names()
	if names.Empty() {
		return
	}

	req, err := l.requester.Heartbeat(names.Channels, names.Groups)
	if err != nil {
		l.logger.ComponentWarn(logging.ComponentPresence, "Failed to build heartbeat", zap.Error(err))
		return
	}
	resp, err := l.transport.Execute(l.ctx, req)
	if err == nil {
		err = transport.Check(resp)
	}
	if err == nil {
		err = wire.DecodeAck(req.Op, resp.Body)
	}
	if err != nil {
		if l.ctx.Err() == nil {
			l.logger.ComponentWarn(logging.ComponentPresence, "Heartbeat failed",
				zap.Strings("channels", names.Channels),
				zap.Error(err),
			)
		}
		return
	}

	l.mu.Lock()
	l.stats.Heartbeats++
	l.mu.Unlock()
}
