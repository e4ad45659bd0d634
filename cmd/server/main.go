package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/cache"
	"github.com/travelmap/itinerary-backend/internal/config"
	"github.com/travelmap/itinerary-backend/internal/handlers"
	"github.com/travelmap/itinerary-backend/internal/middleware"
	"github.com/travelmap/itinerary-backend/internal/services"
	"github.com/travelmap/itinerary-backend/pkg/jwt"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting travel map itinerary backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()

	logger.WithField("driver", cfg.Store.Driver).Info("Opening itinerary store...")
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer store.close()
	logger.Info("Store ready")

	// Locks and token revocation live in Redis when configured so several
	// instances share them
	var locks interface {
		cache.Locker
		cache.Revoker
	}
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		locks = cache.NewRedisStore(redisClient, cfg.Redis.Prefix)
		logger.WithField("addr", cfg.Redis.Addr).Info("Redis connection established")
	} else {
		locks = cache.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, locks and revocations are kept in process")
	}

	// Initialize services
	logger.Info("Initializing services...")
	m := metrics.NewMetrics("travelmap", prometheus.DefaultRegisterer)
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	itineraryService := services.NewItineraryService(store.cities, store.routes, locks, cfg.Security.MutationLockTTL, m, logger)
	connectService := services.NewConnectService(itineraryService, logger)
	adminAuthService := services.NewAdminAuthService(cfg.Admin, jwtService, locks)
	auditService := services.NewAuditService(logger, cfg.Security.EnableAuditLog)

	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	if err := itineraryService.Load(loadCtx); err != nil {
		cancelLoad()
		logger.Fatalf("Failed to load itinerary: %v", err)
	}
	cancelLoad()
	logger.WithFields(logrus.Fields{
		"cities": len(itineraryService.Cities()),
		"routes": len(itineraryService.Routes()),
	}).Info("Itinerary loaded")

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// Configure CORS
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := &handlers.Router{
		JWT:       jwtService,
		Locker:    locks,
		LockTTL:   cfg.Security.MutationLockTTL,
		Metrics:   m,
		Logger:    logger,
		Itinerary: handlers.NewItineraryHandler(itineraryService, auditService, logger),
		Views:     handlers.NewViewsHandler(itineraryService, logger),
		Connect:   handlers.NewConnectHandler(connectService, itineraryService, auditService, logger),
		Auth:      handlers.NewAdminAuthHandler(adminAuthService, auditService, logger),
		Admin:     handlers.NewAdminHandler(itineraryService, auditService, logger),
	}
	api.Register(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   path,
			"query":  query,
			"ip":     c.ClientIP(),
		}).Debug("Incoming request")

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}

		// Admin identity when the request was authenticated
		if user, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = user.UserID
			fields["email"] = user.Email
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(store *storeHandle) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := store.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"store":  store.driver,
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"store":     store.driver,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
