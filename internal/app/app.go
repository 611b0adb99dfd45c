// Package app assembles the practice service from configuration. Both the
// HTTP server and practicectl start from here.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jgirmay/vocab-practice/internal/common/database"
	"github.com/jgirmay/vocab-practice/internal/common/metrics"
	"github.com/jgirmay/vocab-practice/internal/common/middleware"
	"github.com/jgirmay/vocab-practice/internal/health"
	"github.com/jgirmay/vocab-practice/internal/practice/cache"
	"github.com/jgirmay/vocab-practice/internal/practice/handlers"
	"github.com/jgirmay/vocab-practice/internal/practice/repository"
	"github.com/jgirmay/vocab-practice/internal/practice/services"
	"github.com/jgirmay/vocab-practice/pkg/config"
)

// App holds the wired components for one process.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Registry *repository.Registry
	Cache    *cache.AggregationCache
	Service  *services.PracticeService
	Metrics  *metrics.Metrics

	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New opens the database, migrates it and builds the service. reg receives
// the practice metrics; pass nil to disable them.
func New(cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry) (*App, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Env == "production" {
		logLevel = gormlogger.Error
	}

	if cfg.Database.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := database.Open(cfg.Database.Type, cfg.Database.DSN, logLevel)
	if err != nil {
		return nil, err
	}

	registry := repository.NewRegistry(db)
	if err := registry.AutoMigrate(); err != nil {
		database.Close(db)
		return nil, err
	}

	backend, err := newBackend(cfg.Cache.Backend, db)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	var m *metrics.Metrics
	var gatherer prometheus.Gatherer
	if reg != nil {
		m = metrics.New(reg)
		gatherer = reg
	}

	aggCache := cache.New(backend, cache.WithLogger(logger), cache.WithMetrics(m))
	svc := services.NewPracticeService(registry.Records, registry.Users, registry.Assignments, aggCache, services.Options{
		Cache:    cfg.Cache,
		WeekDays: cfg.Leaderboard.WeekDays,
		Logger:   logger,
		Metrics:  m,
	})

	return &App{
		Config:   cfg,
		DB:       db,
		Registry: registry,
		Cache:    aggCache,
		Service:  svc,
		Metrics:  m,
		gatherer: gatherer,
		logger:   logger,
	}, nil
}

func newBackend(kind string, db *gorm.DB) (cache.Backend, error) {
	switch kind {
	case "", "memory":
		return cache.NewMemoryBackend(), nil
	case "database":
		backend := cache.NewGormBackend(db)
		if err := backend.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate cache table: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", kind)
	}
}

// Router builds the gin engine with middleware, health checks, metrics and
// the practice API.
func (a *App) Router() *gin.Engine {
	if a.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.ErrorHandler(a.logger))
	router.Use(middleware.CORSMiddleware())

	checker := health.NewHealthChecker(2 * time.Second)
	checker.Register("database", health.DatabaseProbe(a.DB))
	checker.Register("cache", a.Cache.Ping)
	health.NewHealthHandler(checker).RegisterRoutes(router)

	if a.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	}

	handlers.NewHandler(a.Service).RegisterRoutes(router)
	return router
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	addr := a.Config.Server.Host + ":" + a.Config.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      a.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server startup error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", zap.Duration("timeout", a.Config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (a *App) Close() error {
	return database.Close(a.DB)
}

// LogConfiguration writes the effective configuration at startup.
func LogConfiguration(logger *zap.Logger, cfg *config.Config) {
	logger.Info("configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("version", cfg.Server.Version),
		zap.String("db_type", cfg.Database.Type),
		zap.String("dsn", maskDSN(cfg.Database.DSN)),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Duration("leaderboard_ttl", cfg.Cache.LeaderboardTTL),
		zap.Duration("user_stats_ttl", cfg.Cache.UserStatsTTL),
		zap.Duration("assignments_ttl", cfg.Cache.AssignmentsTTL),
		zap.Int("leaderboard_week_days", cfg.Leaderboard.WeekDays),
	)
}

// maskDSN hides credentials in a connection string.
func maskDSN(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:10] + "..." + dsn[len(dsn)-10:]
	}
	return "***"
}
