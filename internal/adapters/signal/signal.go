// Package signal is the WebSocket adapter between connected clients and the
// session coordinator. It owns every connection's lifetime and send queue;
// the coordinator only ever addresses sessions by id.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/pingroom/internal/app"
	"github.com/avdeyev/pingroom/internal/config"
	"github.com/avdeyev/pingroom/internal/domain"
	"github.com/avdeyev/pingroom/internal/geo"
	"github.com/avdeyev/pingroom/internal/monitoring"
)

// Inbound wire event names, preserved verbatim for client compatibility.
const (
	eventCreateRoom  = "create-room"
	eventJoinRoom    = "join-room"
	eventPing        = "ping"
	eventGetBestPing = "get-best-ping"
	eventNotifyPing  = "notify-ping"
	eventUpdatePing  = "update-ping"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	coord   *app.Coordinator
	geo     geo.Resolver
	metrics *monitoring.Metrics
	limiter *BroadcastLimiter
	cfg     *config.Config

	mu    sync.RWMutex
	conns map[domain.SessionID]*wsConn
}

func NewController(cfg *config.Config, resolver geo.Resolver, metrics *monitoring.Metrics) *Controller {
	return &Controller{
		geo:     resolver,
		metrics: metrics,
		limiter: NewBroadcastLimiter(cfg.BestPingLimit, cfg.BestPingInterval),
		cfg:     cfg,
		conns:   make(map[domain.SessionID]*wsConn),
	}
}

// SetCoordinator closes the controller<->coordinator cycle; called once
// during wiring, before the first connection is accepted.
func (ctl *Controller) SetCoordinator(coord *app.Coordinator) { ctl.coord = coord }

// wsConn pairs a websocket with its buffered send queue. The write pump is
// the only goroutine touching the socket for writes.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and runs the connection until it drops.
// The session id comes from the client-token middleware.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(c.GetString("client_token"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	country := ""
	if code, err := ctl.geo.Resolve(c.Request.Context(), c.Request.RemoteAddr); err == nil {
		country = code
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("country", country).Msg("client connected")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.register(sid, conn)
	if ctl.metrics != nil {
		ctl.metrics.ConnectedClients.Inc()
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
	}()
}

// Send implements app.Sender. Delivery to a session that is gone, or whose
// queue is full, is dropped; the wire offers no delivery guarantee anyway.
func (ctl *Controller) Send(sid domain.SessionID, event string, payload any) {
	ctl.mu.RLock()
	conn, ok := ctl.conns[sid]
	ctl.mu.RUnlock()
	if !ok {
		return
	}
	ctl.sendEvent(conn, event, payload)
}

func (ctl *Controller) register(sid domain.SessionID, conn *wsConn) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if old, ok := ctl.conns[sid]; ok {
		// A reconnect with the same token supersedes the old socket.
		old.Close()
	}
	ctl.conns[sid] = conn
}

// unregister reports whether conn was still the session's registered socket.
// A socket superseded by a reconnect comes back false; its session lives on
// and must not be torn down.
func (ctl *Controller) unregister(sid domain.SessionID, conn *wsConn) bool {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if cur, ok := ctl.conns[sid]; ok && cur == conn {
		delete(ctl.conns, sid)
		return true
	}
	return false
}
