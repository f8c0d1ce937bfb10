// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carterperez-dev/coursemarket/internal/admin"
	"github.com/carterperez-dev/coursemarket/internal/auth"
	"github.com/carterperez-dev/coursemarket/internal/config"
	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/course"
	"github.com/carterperez-dev/coursemarket/internal/health"
	"github.com/carterperez-dev/coursemarket/internal/middleware"
	"github.com/carterperez-dev/coursemarket/internal/server"
	"github.com/carterperez-dev/coursemarket/internal/user"
	"github.com/carterperez-dev/coursemarket/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry exporter initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB, migrations.FS); err != nil {
			return err
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redis != nil {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("redis not configured, rate limits are per process")
	}

	hasher, err := core.NewPasswordHasher(cfg.Security.MaxConcurrentHashes)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized",
		"algorithm", "HS256",
		"access_ttl", cfg.JWT.AccessTokenExpire,
		"refresh_ttl", cfg.JWT.RefreshTokenExpire,
	)

	userSvc := user.NewService(user.NewSQLStore(db.DB), hasher)
	courseSvc := course.NewService(
		course.NewSQLStore(db.DB),
		course.NewSQLCategories(db.DB),
	)
	authSvc := auth.NewService(tokens, userSvc, hasher)

	deps := []health.Dependency{{Name: "database", Checker: db}}
	if redis != nil {
		deps = append(deps, health.Dependency{Name: "redis", Checker: redis})
	}
	healthHandler := health.NewHandler(deps...)

	adminCfg := admin.HandlerConfig{
		Users:   userSvc,
		Courses: courseSvc,
		DBStats: db.Stats,
		DBPing:  db.Ping,
	}
	if redis != nil {
		adminCfg.RedisStats = redis.PoolStats
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		ServiceName:   cfg.App.Name,
	})

	router := srv.Router()

	router.Use(chimw.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.OptionalAuth(tokens))
	router.Use(
		middleware.NewRateLimiter(redis.Client(), middleware.RateLimitConfig{
			Limit: middleware.Per(
				cfg.RateLimit.Window,
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			KeyFunc:    middleware.KeyByUser,
			BypassFunc: isProbe,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	authLimit := middleware.Per(
		time.Minute,
		cfg.RateLimit.AuthRequests,
		cfg.RateLimit.AuthBurst,
	)
	perClient := middleware.NewRateLimiter(redis.Client(), middleware.RateLimitConfig{
		Limit:   authLimit,
		KeyFunc: middleware.KeyByIPAndEndpoint,
	})
	perAccount := middleware.NewRateLimiter(redis.Client(), middleware.RateLimitConfig{
		Limit:   authLimit,
		KeyFunc: middleware.KeyByAccount,
	})
	authLimiter := func(next http.Handler) http.Handler {
		return perClient.Handler(perAccount.Handler(next))
	}

	server.MountAPI(router, server.API{
		Auth:          auth.NewHandler(authSvc),
		Users:         user.NewHandler(userSvc),
		Courses:       course.NewHandler(courseSvc),
		Admin:         admin.NewHandler(adminCfg),
		Authenticator: middleware.Authenticator(tokens),
		AuthLimiter:   authLimiter,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
