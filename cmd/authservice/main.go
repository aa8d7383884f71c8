package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecofuel/fleet-auth/internal/api"
	"github.com/ecofuel/fleet-auth/internal/api/handler"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
	"github.com/ecofuel/fleet-auth/internal/core/service"
	"github.com/ecofuel/fleet-auth/internal/infrastructure/config"
	"github.com/ecofuel/fleet-auth/internal/infrastructure/db/postgres"
	"github.com/ecofuel/fleet-auth/internal/infrastructure/db/redis"
	"github.com/ecofuel/fleet-auth/internal/infrastructure/security"
	"github.com/ecofuel/fleet-auth/internal/token"
	"github.com/ecofuel/fleet-auth/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{Service: "fleet-auth"})
		l.Fatal().Err(err).Msg("configuration error")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Service: "fleet-auth",
		Pretty:  cfg.Env == "development",
	})

	// --- Postgres ---
	store, err := postgres.Open(cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	if err := store.SeedRoles(ctx); err != nil {
		log.Fatal().Err(err).Msg("role seeding failed")
	}

	// --- Redis (optional: login throttling degrades open without it) ---
	var rdb *goredis.Client
	var throttle ports.LoginThrottle
	rdb, err = redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		rdb = nil
	} else {
		defer rdb.Close()
		throttle = redis.NewLoginThrottle(rdb, cfg.Throttle.MaxFailures,
			time.Duration(cfg.Throttle.WindowMinutes)*time.Minute)
	}

	// --- Tokens ---
	issuer, err := token.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience,
		time.Duration(cfg.JWT.TTLMinutes)*time.Minute, log)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer setup failed")
	}
	validator, err := token.NewValidator(cfg.JWT.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("token validator setup failed")
	}

	// --- Services ---
	hasher := security.NewBcryptHasher(0)
	authService := service.NewAuthService(store, hasher, throttle, log)
	userService := service.NewUserService(store, log)

	e := api.NewRouter(api.RouterConfig{
		AuthHandler: handler.NewAuthHandler(authService, issuer),
		UserHandler: handler.NewUserHandler(userService),
		Health:      handler.NewHealthHandler(),
		Readiness:   handler.NewReadinessHandler(store.DB(), rdb),
		Validator:   validator,
		Accounts:    store.Users(),
		Log:         log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting auth service")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
