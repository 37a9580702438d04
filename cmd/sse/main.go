package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careconnect/backend/internal/adapters/cache"
	"github.com/careconnect/backend/internal/adapters/events"
	"github.com/careconnect/backend/internal/adapters/local"
	"github.com/careconnect/backend/internal/api/handlers"
	"github.com/careconnect/backend/internal/api/middleware"
	"github.com/careconnect/backend/internal/domain/providers"
	"github.com/careconnect/backend/internal/infrastructure/auth"
	"github.com/careconnect/backend/internal/infrastructure/clients/redis"
	"github.com/careconnect/backend/internal/infrastructure/observability"
	"github.com/careconnect/backend/internal/syncbus"
	"github.com/careconnect/backend/pkg/config"
)

// The change-stream relay serves /api/stream/changes without the rest of the
// API, fed by the same Redis channel and keyspace notifications.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := observability.InitLogger("careconnect-sse", "production")
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := observability.InitLogger("careconnect-sse", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis is required: it is the only source of changes made by other processes
	redisClient, err := redis.NewClient(ctx, &cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient, cfg.Sync.SubscriberBuffer, logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}()

	var watcher providers.StorageWatcher
	if cfg.Sync.KeyspaceWatch {
		watcher = cache.NewKeyspaceWatcher(redisClient, logger)
	}

	bus := syncbus.NewBus(eventBus, watcher, cfg.Sync.Channel, logger)
	if err := bus.Start(ctx,
		local.KeyAppointments,
		local.KeyUserProfiles,
		local.KeyDoctorProfiles,
		local.KeyPatientProfiles,
		local.KeyNotifications,
		local.KeyCurrentUser,
		local.KeyPreferencesPrefix,
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to start sync bus")
	}
	defer bus.Close()

	sseHandler := handlers.NewSSEHandler(bus, metrics, logger)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn().Msg("AUTH_JWT_SECRET is not set, using the development secret")
	}
	tokens := auth.NewTokenService(cfg.Auth.SigningSecret(), cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/stream/changes", middleware.RequireCaller(sseHandler.StreamChanges))
	mux.HandleFunc("GET /api/stream/stats", middleware.RequireCaller(sseHandler.Stats))

	var handler http.Handler = mux
	handler = middleware.AuthMiddleware(tokens, logger)(handler)
	handler = middleware.LoggingMiddleware(logger)(handler)
	handler = middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(handler)

	server := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("change stream relay starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("change stream relay failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("change stream relay shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}
}
