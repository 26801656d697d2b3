package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Health checks are logged at Debug.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if p, ok := PrincipalFrom(c); ok && p.Authenticated() {
			fields = append(fields, zap.String("user_id", p.UserID()))
		}
		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case c.Request.URL.Path == "/healthz":
			logger.Debug("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
