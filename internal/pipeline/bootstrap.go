package pipeline

import (
	"context"

	"nba_totals/pipeline/internal/cache"
	"nba_totals/pipeline/internal/client"
	"nba_totals/pipeline/internal/config"
	"nba_totals/pipeline/internal/repository"

	"github.com/rs/zerolog/log"
)

// Bootstrap builds a pipeline with the ESPN client, and the Redis cache and
// Postgres export when configured. Optional backends that cannot be reached
// are logged and left out. The returned func releases them.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Pipeline, func()) {
	var closers []func()

	clientOpts := []client.Option{
		client.WithUserAgent(cfg.ESPNUserAgent),
		client.WithRequestInterval(cfg.ESPNRequestInterval),
	}

	if cfg.CacheEnabled() {
		redisCache, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			closers = append(closers, func() { _ = redisCache.Close() })
			clientOpts = append(clientOpts, client.WithCache(redisCache, cfg.CacheTTL))
		}
	}

	espn := client.NewClient(cfg.ESPNBaseURL, cfg.ESPNTimeout, clientOpts...)
	log.Info().Str("base_url", cfg.ESPNBaseURL).Msg("ESPN client initialized")

	var opts []Option
	if cfg.ExportEnabled() {
		db, err := repository.NewDatabase(ctx, repository.Config{URL: cfg.ExportDatabaseURL})
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to connect to export database - continuing without export")
		default:
			if err := db.Migrate(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to migrate export database - continuing without export")
				db.Close()
				break
			}
			closers = append(closers, db.Close)
			opts = append(opts, WithExporter(db.Features))
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	return New(cfg, espn, opts...), cleanup
}
