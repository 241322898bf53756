package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics reports runtime memory and goroutine figures. Pipeline and hub
// metrics are exported over OTLP, not here.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc >> 20,
				"total_alloc_mb": m.TotalAlloc >> 20,
				"sys_mb":         m.Sys >> 20,
				"heap_objects":   m.HeapObjects,
				"gc_runs":        m.NumGC,
				"gc_pause_ms":    time.Duration(m.PauseTotalNs).Milliseconds(),
			},
		})
	}
}
