package live

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/notify"
)

type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func (t *wsTransport) Kind() string { return "websocket" }

func (t *wsTransport) Send(data []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeTimeout))
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(t.writeTimeout))
		err = t.conn.Close()
	})
	return err
}

// Handler serves live sessions over WebSocket and Server-Sent Events.
type Handler struct {
	hub      *notify.Hub
	cfg      Config
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewHandler creates a handler subscribing sessions to cfg.Topic on hub.
func NewHandler(hub *notify.Hub, cfg Config) *Handler {
	h := &Handler{
		hub: hub,
		cfg: cfg,
		log: logger.WithComponent("live"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeWebSocket upgrades the request and runs a session until the client
// disconnects. Client messages are read and discarded.
func (h *Handler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Warn("WebSocket upgrade failed", logger.Fields(
			logger.FieldError, err.Error(),
			"remote_addr", r.RemoteAddr,
		))
		return
	}
	conn.SetReadLimit(h.cfg.ReadLimit)

	t := &wsTransport{conn: conn, writeTimeout: h.cfg.WriteTimeout}
	sess, err := Open(h.hub, t, h.cfg)
	if err != nil {
		h.log.Warn("Session open failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	logClose(sess.log, sess.Run(ctx))
}
