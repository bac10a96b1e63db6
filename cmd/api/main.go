// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/imadgeboyega/projectmatch-backend/internal/auth"
	"github.com/imadgeboyega/projectmatch-backend/internal/cache"
	"github.com/imadgeboyega/projectmatch-backend/internal/common/database"
	"github.com/imadgeboyega/projectmatch-backend/internal/common/utils"
	"github.com/imadgeboyega/projectmatch-backend/internal/compatibility"
	"github.com/imadgeboyega/projectmatch-backend/internal/config"
	"github.com/imadgeboyega/projectmatch-backend/internal/logger"
	"github.com/imadgeboyega/projectmatch-backend/internal/matching"
	"github.com/imadgeboyega/projectmatch-backend/internal/notification"
)

var startTime = time.Now()

func main() {
	// 1. Environment and configuration
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Environment)
	if envErr != nil {
		log.WithError(envErr).Debug("no .env file found, using environment variables")
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := runMigrations(ctx, db, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// 3. Caches
	backend, redisClient, err := newCacheBackend(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialise cache backend")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	scores := cache.NewCompatibilityCache(backend, cfg.CompatibilityCacheTTL, log)
	feeds := cache.NewFeedCache(backend, cfg.FeedCacheTTL, log)

	// 4. Notifications
	hub := notification.NewHub(log)
	go hub.Run(ctx)

	var push notification.PushService
	if cfg.EnablePushNotifications {
		fcm, err := notification.NewFCMPushService(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialise push notifications")
		}
		push = fcm
		log.Info("FCM push notifications enabled")
	} else {
		push = notification.NewMockPushService(log)
		log.Info("push notifications disabled, using mock push service")
	}

	notificationService := notification.NewService(notification.NewPostgresRepository(db), hub, push, log)
	notificationHandler := notification.NewHandler(notificationService, hub, log)

	cleanupJob := notification.NewCleanupJob(notificationService, cfg.NotificationCleanupTick, cfg.NotificationRetention, log)
	go cleanupJob.Start(ctx)

	// 5. Matching
	matchingService := matching.NewService(
		matching.NewPostgresRepository(db),
		compatibility.NewEngine(),
		scores,
		feeds,
		notificationService,
		matching.Options{
			FeedPoolSize: cfg.FeedPoolSize,
			FeedLimit:    cfg.FeedLimit,
			UndoWindow:   cfg.UndoWindow,
		},
		log,
	)
	matchingHandler := matching.NewHandler(matchingService)

	// 6. Routes
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck(db, redisClient)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	matching.RegisterRoutes(router, matchingHandler, authMiddleware)
	notification.RegisterRoutes(router, notificationHandler, authMiddleware)

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(log))

	// 7. HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      corsMiddleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"environment":   cfg.Environment,
			"cache_backend": cfg.CacheBackend,
		}).Info("server starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	cleanupJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return
	}

	log.Info("server exited gracefully")
}

// newCacheBackend selects the store shared by the compatibility and feed caches
func newCacheBackend(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (cache.Backend, *redis.Client, error) {
	switch cfg.CacheBackend {
	case "redis":
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis cache backend")
		return cache.NewRedisBackend(client), client, nil

	case "none":
		log.Warn("caching disabled, every compatibility score is computed on demand")
		return cache.NoopBackend{}, nil, nil

	default:
		maxTTL := cfg.CompatibilityCacheTTL
		if cfg.FeedCacheTTL > maxTTL {
			maxTTL = cfg.FeedCacheTTL
		}
		log.WithField("size", cfg.CacheSize).Info("using in-memory cache backend")
		return cache.NewMemoryBackend(cfg.CacheSize, maxTTL), nil, nil
	}
}

// healthCheck reports server health along with database and cache reachability
func healthCheck(db *sqlx.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{"database": "ok"}

		if err := db.PingContext(ctx); err != nil {
			checks["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			checks["cache"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				checks["cache"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}

		utils.RespondWithJSON(w, status, map[string]interface{}{
			"status":    state,
			"checks":    checks,
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
		})
	}
}
