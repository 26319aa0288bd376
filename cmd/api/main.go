package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/auth"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/license"
	"server/internal/security"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	var attempts security.AttemptStore
	if redisClient != nil {
		defer redisClient.Close()
		attempts = security.NewRedisAttemptStore(redisClient)
	} else {
		logger.Info().Msg("redis not configured, using in-memory attempt counters")
		attempts = security.NewMemoryAttemptStore(nil)
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}

	licenseRepo := repo.NewLicenseRepository(dbpool)
	userRepo := repo.NewUserRepository(dbpool)

	app := &handlers.App{
		Logger:    logger,
		Registry:  license.NewRegistry(licenseRepo, logger, nil),
		Activator: license.NewActivator(licenseRepo, userRepo, logger, nil),
		Users:     userRepo,
		Gate: security.NewGate(resolver, attempts, cfg.BlockedCountries, cfg.BlockedEmailDomains,
			cfg.AuthAttemptsPerHour, time.Hour, logger),
		Credentials: auth.NewBcryptVerifier(cfg.AdminPasswordHash),
		Tokens:      auth.NewTokenManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
