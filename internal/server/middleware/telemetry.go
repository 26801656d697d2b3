package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"church-portal/internal/telemetry"
)

// RequestTelemetry emits an http_request event after each request. Paths in skip are not
// emitted. A nil emitter disables the middleware.
func RequestTelemetry(emitter telemetry.EventEmitter, logger *zap.Logger, skip map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if emitter == nil || skip[c.Request.URL.Path] {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ev := telemetry.NewEvent(telemetry.EventHTTPRequest, "http_middleware", map[string]string{
			"method":      c.Request.Method,
			"route":       route,
			"status_code": strconv.Itoa(c.Writer.Status()),
			"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
			"client_ip":   c.ClientIP(),
		})
		if p, ok := PrincipalFrom(c); ok {
			ev.UserID = p.UserID()
			ev.ChurchID = p.ChurchID()
			ev.SessionID = p.SessionID
		}
		telemetry.EmitAsync(emitter, logger, ev)
	}
}
