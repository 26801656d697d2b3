package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"church-portal/internal/access"
	"church-portal/internal/audit"
	auditrepo "church-portal/internal/audit/repository"
	"church-portal/internal/authstate"
	churchrepo "church-portal/internal/church/repository"
	churchservice "church-portal/internal/church/service"
	"church-portal/internal/config"
	"church-portal/internal/db"
	healthhandler "church-portal/internal/health/handler"
	"church-portal/internal/identity/gotrue"
	identityservice "church-portal/internal/identity/service"
	"church-portal/internal/logger"
	"church-portal/internal/policy/engine"
	profilerepo "church-portal/internal/profile/repository"
	profileservice "church-portal/internal/profile/service"
	"church-portal/internal/server"
	"church-portal/internal/server/middleware"
	sessionrepo "church-portal/internal/session/repository"
	sessionservice "church-portal/internal/session/service"
	"church-portal/internal/telemetry"
	telemetryotel "church-portal/internal/telemetry/otel"
	webhandler "church-portal/internal/web/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		zl.Fatal("telemetry setup failed", zap.Error(err))
	}
	providers.SetGlobal()
	decisions, err := telemetry.NewDecisionCounter(providers.Meter())
	if err != nil {
		zl.Fatal("decision counter", zap.Error(err))
	}
	emitter := telemetryotel.NewEventEmitter(providers.LoggerProvider)

	openCtx, cancel := context.WithTimeout(ctx, cfg.BackendCallTimeout())
	conn, err := db.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	var store sessionrepo.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.BackendCallTimeout())
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			zl.Fatal("redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		store = sessionrepo.NewRedisStore(rdb)
	} else {
		zl.Warn("REDIS_ADDR not set; sessions are kept in memory and lost on restart")
		store = sessionrepo.NewMemoryStore()
	}

	authorizer, err := engine.NewOPAAuthorizer(ctx, "")
	if err != nil {
		zl.Fatal("policy", zap.Error(err))
	}

	profiles := profilerepo.NewPostgresRepository(conn)
	lookup := profileservice.NewLookup(profiles, cfg.BackendCallTimeout(), zl.Named("profile"))
	registry := authstate.NewRegistry(authstate.LookupFunc(lookup), cfg.ProfileTimeout(), cfg.SessionLifetime(), zl.Named("authstate"))
	defer registry.Close()
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go registry.SweepEvery(sweepCtx, time.Minute)

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIPFromContext, zl.Named("audit"))
	provider := gotrue.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.BackendCallTimeout())
	sessions := sessionservice.NewManager(store, cfg.SessionLifetime())
	cookie := sessionservice.NewCookie(cfg.SessionCookieName, cfg.CookieSecure)

	resolver := identityservice.NewResolver(provider, sessions, registry, cfg.BackendCallTimeout(), cfg.RefreshWindow(), zl.Named("resolver"))
	authSvc := identityservice.NewAuthService(provider, sessions, registry, profiles, auditLogger, zl.Named("auth"))

	churches := churchservice.NewService(churchservice.Deps{
		Churches:     churchrepo.NewPostgresChurchRepository(conn),
		Applications: churchrepo.NewPostgresApplicationRepository(conn),
		Events:       churchrepo.NewPostgresEventRepository(conn),
		Inventory:    churchrepo.NewPostgresInventoryRepository(conn),
		Files:        churchrepo.NewPostgresFileRepository(conn),
		Profiles:     profiles,
		Authorizer:   authorizer,
		Sessions:     registry,
		Audit:        auditLogger,
		Logger:       zl.Named("church"),
	})

	guard := middleware.NewGuard(middleware.GuardDeps{
		Resolver:   resolver,
		Classifier: access.MustClassifier(access.DefaultRoutes()),
		Lookup:     lookup,
		Cookie:     cookie,
		Notifier:   registry,
		Decisions:  decisions,
		Emitter:    emitter,
		Logger:     zl.Named("guard"),
	})

	router, err := server.NewRouter(server.Deps{
		ServiceName:    cfg.ServiceName,
		TrustedProxies: cfg.TrustedProxyList(),
		Guard:       guard,
		Web: webhandler.New(webhandler.Deps{
			Auth:      authSvc,
			Churches:  churches,
			AuthState: registry,
			Cookie:    cookie,
			Logger:    zl.Named("web"),
		}),
		Health:  healthhandler.New(conn, authorizer, zl.Named("health")),
		Emitter: emitter,
		Logger:  zl.Named("http"),
	})
	if err != nil {
		zl.Fatal("router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		zl.Warn("telemetry shutdown", zap.Error(err))
	}
	zl.Info("HTTP server stopped")
}
