package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/availability"
	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/records"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/middleware"
)

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

// app holds the wired services and handlers.
type app struct {
	issuer *auth.Issuer
	status auth.AccountStatusChecker

	public   *identity.Handler
	handlers []routeRegistrar
}

// newApp wires repositories, services and handlers. rdb may be nil, in which
// case account status is read from Postgres on every request.
func newApp(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger zerolog.Logger) (*app, error) {
	key, ephemeral, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}
	if ephemeral {
		logger.Warn().Msg("JWT_SECRET not set; using a random signing key, tokens will not survive a restart")
	}
	issuer := auth.NewIssuer(key, cfg.JWTIssuer, cfg.TokenTTL)

	tx := db.NewTxRunner(pool)
	doctorRepo := identity.NewDoctorRepoPG(pool)
	patientRepo := identity.NewPatientRepoPG(pool)

	identitySvc := identity.NewService(tx,
		identity.NewAccountRepoPG(pool), patientRepo, doctorRepo,
		auth.NewPasswordHasher(cfg.BcryptCost), issuer,
		logger.With().Str("component", "identity").Logger())

	var status auth.AccountStatusChecker = identitySvc
	if rdb != nil {
		cached := auth.NewCachedStatusChecker(identitySvc, auth.NewRedisStatusCache(rdb), cfg.StatusCacheTTL, logger)
		identitySvc.WithStatusInvalidator(cached)
		status = cached
	}
	if !cfg.AuthCheckActive {
		status = nil
	}

	availabilitySvc := availability.NewService(tx, availability.NewRepoPG(pool), doctorRepo,
		logger.With().Str("component", "availability").Logger())
	schedulingSvc := scheduling.NewService(tx, scheduling.NewAppointmentRepoPG(pool),
		doctorRepo, patientRepo, availabilitySvc,
		logger.With().Str("component", "scheduling").Logger())
	recordsSvc := records.NewService(records.NewRepoPG(pool), patientRepo,
		logger.With().Str("component", "records").Logger())
	directorySvc := directory.NewService(directory.NewRepoPG(pool),
		logger.With().Str("component", "directory").Logger())

	identityHandler := identity.NewHandler(identitySvc)
	return &app{
		issuer: issuer,
		status: status,
		public: identityHandler,
		handlers: []routeRegistrar{
			identityHandler,
			availability.NewHandler(availabilitySvc),
			scheduling.NewHandler(schedulingSvc),
			records.NewHandler(recordsSvc),
			directory.NewHandler(directorySvc),
		},
	}, nil
}

// newRouter builds the echo instance: global middleware, health checks,
// public auth routes and the authenticated /api group.
func newRouter(cfg *config.Config, logger zerolog.Logger, a *app, health echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if health != nil {
		e.GET("/health/db", health)
	}

	a.public.RegisterPublicRoutes(e.Group("/auth"))

	api := e.Group("/api", auth.Authenticate(a.issuer, a.status))
	for _, h := range a.handlers {
		h.RegisterRoutes(api)
	}
	return e
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger(nil)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		logger.Info().Msg("account status cache enabled")
	}

	a, err := newApp(cfg, pool, rdb, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	e := newRouter(cfg, logger, a, db.HealthHandler(pool, cfg.DBSchema, logger))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
