package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logify-app/logify/internal/app"
	"github.com/logify-app/logify/internal/auth"
	"github.com/logify-app/logify/internal/observability"
	"github.com/logify-app/logify/internal/platform/cache"
	"github.com/logify-app/logify/internal/platform/db"
	"github.com/logify-app/logify/internal/profile"
	"github.com/logify-app/logify/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookieName, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	metrics := observability.NewMetrics()
	counters := observability.NewAuthCounters(metrics.Registerer())

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, auth.NewHasher(cfg.BcryptCost), logger, counters)

	var providerRoutes []auth.ProviderRoute
	for _, provider := range auth.Providers() {
		if !cfg.ProviderConfig(provider).Enabled() {
			logger.Info("oauth provider not configured, routes unmounted", slog.String("provider", provider.Name))
			continue
		}
		providerRoutes = append(providerRoutes, auth.ProviderRoute{
			Provider: provider,
			Verifier: auth.NewGatewayVerifier(provider),
		})
	}

	authHandler := auth.NewHandler(logger, authService, sessionManager, cfg.FrontendURL, providerRoutes)

	profileRepo := profile.NewRepository(pool)
	profileService := profile.NewService(profileRepo)
	profileHandler := profile.NewHandler(logger, profileService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthHandler:    authHandler,
		ProfileHandler: profileHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
