package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "storefront/internal/adapters/http_server"
	"storefront/internal/adapters/observability"
	redisad "storefront/internal/adapters/redis"
	"storefront/internal/adapters/reviewapi"
	"storefront/internal/app"
	"storefront/internal/domain"
	"storefront/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	client, err := reviewapi.New(cfg.ReviewsAPIBase, cfg.ReviewsToken, cfg.ReviewsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review API client")
	}

	// deps
	var transport domain.ReviewTransport = client
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; cache calls will fail open")
		}
		cancel()
		transport = app.NewCachedTransport(client, cache, cfg.CacheTTL)
	}
	sessions := app.NewSessions(transport, cfg.SessionTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	observability.Serve(reg)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Sessions: sessions})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("reviews_api", cfg.ReviewsAPIBase).Msg("storefront API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("storefront API stopped")
}
