package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"storefront/internal/adapters/observability"
	redisad "storefront/internal/adapters/redis"
	"storefront/internal/adapters/reviewapi"
	"storefront/internal/app"
	"storefront/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.ReviewsAPIBase).
		Int("workers", cfg.WarmWorkers).
		Int("products", len(cfg.WarmProductIDs)).
		Msg("warmer starting")

	if len(cfg.WarmProductIDs) == 0 {
		log.Warn().Msg("WARM_PRODUCT_IDS is empty; nothing to do")
		return
	}

	client, err := reviewapi.New(cfg.ReviewsAPIBase, cfg.ReviewsToken, cfg.ReviewsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review API client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	w := app.NewWarmer(app.NewCachedTransport(client, cache, cfg.CacheTTL), cfg.WarmWorkers)
	rep, err := w.Warm(ctx, cfg.WarmProductIDs)
	if err != nil {
		log.Error().Err(err).Int64("ok", rep.OK).Int64("failed", rep.Failed).Msg("warm aborted")
		return
	}
	log.Info().Int64("ok", rep.OK).Int64("failed", rep.Failed).Msg("warm completed")
}
