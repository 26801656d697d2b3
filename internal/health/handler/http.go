// Package handler serves the readiness endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is implemented by policy/engine.OPAAuthorizer.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler reports whether the database and policy engine are usable. Nil dependencies are skipped.
type Handler struct {
	db     Pinger
	policy PolicyChecker
	logger *zap.Logger
}

// New returns a health Handler.
func New(db Pinger, policy PolicyChecker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{db: db, policy: policy, logger: logger}
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Check handles GET /healthz. Responds 503 when any check fails.
func (h *Handler) Check(c *gin.Context) {
	res := response{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	run := func(name string, check func(context.Context) error) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			res.Checks[name] = "unavailable"
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			return
		}
		res.Checks[name] = "ok"
	}
	if h.db != nil {
		run("database", h.db.PingContext)
	}
	if h.policy != nil {
		run("policy", h.policy.HealthCheck)
	}
	c.JSON(status, res)
}
