// Package server builds the Gin router.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	healthhandler "church-portal/internal/health/handler"
	"church-portal/internal/server/middleware"
	"church-portal/internal/telemetry"
	webhandler "church-portal/internal/web/handler"
)

// HealthPath is served ahead of the guard so health checks never touch the session store.
const HealthPath = "/healthz"

// Deps holds the router's collaborators. Emitter and Logger are optional.
type Deps struct {
	// ServiceName names the otelgin spans.
	ServiceName string
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
	Guard       *middleware.Guard
	Web         *webhandler.Handler
	Health      *healthhandler.Handler
	// Emitter receives one http_request event per request. Nil disables request events.
	Emitter telemetry.EventEmitter
	Logger  *zap.Logger
}

// NewRouter returns the engine with tracing, logging and recovery installed, the health
// endpoint registered, and every page behind the guard.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	if deps.ServiceName != "" {
		r.Use(otelgin.Middleware(deps.ServiceName))
	}
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.RequestTelemetry(deps.Emitter, deps.Logger, map[string]bool{HealthPath: true}))

	if deps.Health != nil {
		r.GET(HealthPath, deps.Health.Check)
	}

	r.Use(middleware.GinGuard(deps.Guard))
	deps.Web.RegisterRoutes(r)
	return r, nil
}
