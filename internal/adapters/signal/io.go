package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/pingroom/internal/domain"
)

const writeWait = 5 * time.Second

// envelope is the wire frame in both directions: an event name plus its
// payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	// Control pings keep intermediaries from closing idle sessions while a
	// room sits waiting for reports.
	pinger := time.NewTicker(ctl.cfg.PingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pinger.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid domain.SessionID, c *wsConn) {
	defer func() {
		c.Close()
		current := ctl.unregister(sid, c)
		// The gauge counts open sockets, so Dec mirrors the Inc every
		// accepted upgrade performed.
		if ctl.metrics != nil {
			ctl.metrics.ConnectedClients.Dec()
		}
		if !current {
			// A reconnect with the same token superseded this socket. The
			// session is still attached through the new one; tearing the
			// room down here would evict a live member.
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("superseded socket closed")
			return
		}
		ctl.limiter.Forget(sid)
		// The one unconditional cancellation signal: the coordinator tells
		// the room and tears the membership down.
		ctl.coord.Disconnect(sid)
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	pongWait := ctl.cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleMessage(sid, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(sid domain.SessionID, c *wsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.sendError(c, "bad-payload")
		return
	}
	if ctl.metrics != nil {
		ctl.metrics.Events.WithLabelValues(env.Type).Inc()
	}

	switch env.Type {
	case eventCreateRoom:
		ctl.coord.CreateRoom(sid)

	case eventJoinRoom:
		var p struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			ctl.sendError(c, "bad-payload")
			return
		}
		ctl.coord.JoinRoom(sid, domain.RoomID(p.RoomID))

	case eventPing:
		var p struct {
			Samples []domain.LatencySample `json:"samples"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			ctl.sendError(c, "bad-payload")
			return
		}
		ctl.coord.ReportPings(sid, p.Samples)

	case eventGetBestPing:
		if !ctl.limiter.Allow(sid) {
			ctl.sendError(c, "rate-limited")
			return
		}
		ctl.coord.BestPing(sid)

	case eventNotifyPing:
		var p struct {
			RoomID string `json:"roomId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			ctl.sendError(c, "bad-payload")
			return
		}
		ctl.coord.NotifyPingStart(sid, domain.RoomID(p.RoomID))

	case eventUpdatePing:
		var p struct {
			RoomID string `json:"roomId"`
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			ctl.sendError(c, "bad-payload")
			return
		}
		ctl.coord.UpdatePing(sid, domain.RoomID(p.RoomID), p.UserID)

	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendEvent(c *wsConn, event string, payload any) {
	b, err := json.Marshal(outEnvelope{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("marshal event")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, code string) {
	ctl.sendEvent(c, "error", map[string]string{"error": code})
}
