package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/shared"
)

// Logger emits one structured line per request. The editor UI heartbeats
// every lock it holds, so lock routes dominate this log; keeping the line
// compact matters more here than in a typical CRUD API.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}

		event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency_ms", latency).
			Str("ip", c.ClientIP()).
			Str("actor", c.GetString(shared.CtxDisplayName)).
			Msg("HTTP Request")
	}
}
