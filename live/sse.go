package live

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/vidscribe/logger"
)

type sseTransport struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
}

func (t *sseTransport) Kind() string { return "sse" }

func (t *sseTransport) Send(data []byte) error {
	return t.write("data: %s\n\n", data)
}

func (t *sseTransport) Ping() error {
	return t.write(": keepalive %d\n\n", time.Now().Unix())
}

func (t *sseTransport) write(format string, args ...any) error {
	// Extending per write keeps a stalled client from pinning the session.
	_ = t.rc.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	if _, err := fmt.Fprintf(t.w, format, args...); err != nil {
		return err
	}
	return t.rc.Flush()
}

// The response ends when the handler returns.
func (t *sseTransport) Close() error { return nil }

// ServeSSE streams a session as Server-Sent Events until the client
// disconnects.
func (h *Handler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		h.log.Error("Streaming not supported", logger.Fields("remote_addr", r.RemoteAddr))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug("Could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	t := &sseTransport{w: w, rc: rc, writeTimeout: h.cfg.WriteTimeout}
	sess, err := Open(h.hub, t, h.cfg)
	if err != nil {
		h.log.Warn("Session open failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}

	logClose(sess.log, sess.Run(r.Context()))
}
