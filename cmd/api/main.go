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
	"github.com/careconnect/backend/internal/adapters/database"
	"github.com/careconnect/backend/internal/adapters/events"
	"github.com/careconnect/backend/internal/adapters/local"
	"github.com/careconnect/backend/internal/adapters/search"
	"github.com/careconnect/backend/internal/adapters/storage"
	"github.com/careconnect/backend/internal/api/handlers"
	"github.com/careconnect/backend/internal/api/routes"
	"github.com/careconnect/backend/internal/application/services"
	"github.com/careconnect/backend/internal/domain/providers"
	"github.com/careconnect/backend/internal/infrastructure/auth"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/careconnect/backend/internal/infrastructure/clients/redis"
	"github.com/careconnect/backend/internal/infrastructure/clients/typesense"
	"github.com/careconnect/backend/internal/infrastructure/observability"
	"github.com/careconnect/backend/internal/syncbus"
	"github.com/careconnect/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger := observability.InitLogger("careconnect-backend", "production")
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Authoritative store for the backend functions
	pgClient, err := postgres.NewClient(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Local data layer: Redis when reachable, otherwise an in-process store
	var (
		kv        providers.KVStore
		watcher   providers.StorageWatcher
		broadcast providers.EventBus
	)
	redisClient, err := redis.NewClient(ctx, &cfg.Redis, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, local data layer is in-memory for this process only")
		memory := cache.NewMemoryAdapter()
		kv, watcher = memory, memory
		broadcast = events.NewMemoryEventBus(cfg.Sync.SubscriberBuffer, logger)
	} else {
		defer redisClient.Close()
		kv = cache.NewRedisAdapter(redisClient)
		if cfg.Sync.KeyspaceWatch {
			watcher = cache.NewKeyspaceWatcher(redisClient, logger)
		}
		broadcast = events.NewRedisEventBus(redisClient, cfg.Sync.SubscriberBuffer, logger)
	}
	defer func() {
		if err := broadcast.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}()

	bus := syncbus.NewBus(broadcast, watcher, cfg.Sync.Channel, logger)
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

	store := storage.NewJSONStore(kv, logger)
	store.SetObserver(bus)

	localAppointments := local.NewAppointmentRepository(store, bus, logger)
	localProfiles := local.NewProfileRepository(store, bus, logger)
	localPreferences := local.NewPreferencesRepository(store, bus, logger)
	localNotifications := local.NewNotificationRepository(store, bus, logger)

	// Doctor search index is optional; find-doctors falls back to the database
	var doctorSearch providers.DoctorSearchProvider
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Typesense unavailable, doctor search uses the database")
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			doctorSearch = search.NewDoctorIndex(tsClient)
		}
	}

	// Caller identity
	if cfg.Auth.JWTSecret == "" {
		logger.Warn().Msg("AUTH_JWT_SECRET is not set, using the development secret")
	}
	tokens := auth.NewTokenService(cfg.Auth.SigningSecret(), cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// Initialize services
	appointmentStore := database.NewAppointmentAdapter(pgClient)
	userStore := database.NewUserAdapter(pgClient)

	appointmentQueries := services.NewAppointmentQueryService(appointmentStore, userStore, logger)
	registration := services.NewRegistrationService(userStore, doctorSearch, logger)
	directory := services.NewDoctorDirectoryService(userStore, doctorSearch, logger)

	// Initialize handlers
	functionHandler := handlers.NewBackendFunctions(appointmentQueries, registration, directory, metrics, logger)
	appointmentHandler := handlers.NewAppointmentHandler(localAppointments)
	profileHandler := handlers.NewProfileHandler(localProfiles, localPreferences, localNotifications)
	sseHandler := handlers.NewSSEHandler(bus, metrics, logger)

	router := routes.NewRouter(
		functionHandler,
		appointmentHandler,
		profileHandler,
		sseHandler,
		tokens,
		cfg.Server.AllowedOrigins,
		metrics,
		logger,
	)

	// No write deadline: change streams stay open until the client leaves or
	// the process is signalled.
	server := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Strs("functions", functionHandler.Names()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
