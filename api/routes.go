package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/vidscribe/live"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/resilience"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/server/middleware"
)

// Mounter records routes mounted outside Gin.
type Mounter interface {
	TrackMount(method, path, handler string)
}

// Register mounts the upload and live-update routes on srv. A positive
// limit.Rate throttles uploads per client IP until ctx ends.
func Register(ctx context.Context, srv *server.Server, h *Handler, lh *live.Handler, limit resilience.RateLimiterConfig, m Mounter) {
	handlers := []gin.HandlerFunc{h.UploadVideo}
	if limit.Rate > 0 {
		handlers = append([]gin.HandlerFunc{middleware.RateLimit(ctx, limit)}, handlers...)
	}
	engine := srv.GinEngine()
	engine.POST(PathUpload, handlers...)

	// The upload answers when the run ends, which may be after the server
	// write timeout.
	srv.Handle(PathUpload, clearWriteDeadline(engine, h.log))
	srv.Handle(PathWebSocket, http.HandlerFunc(lh.ServeWebSocket))
	srv.Handle(PathEvents, http.HandlerFunc(lh.ServeSSE))
	if m != nil {
		m.TrackMount(http.MethodGet, PathWebSocket, "live.ServeWebSocket")
		m.TrackMount(http.MethodGet, PathEvents, "live.ServeSSE")
	}
}

func clearWriteDeadline(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("Could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
		}
		next.ServeHTTP(w, r)
	})
}
