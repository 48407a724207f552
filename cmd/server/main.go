package main

import (
	"context"
	"log"
	"time"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/database"
	plog "github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/routes"
	"github.com/example/perfumatch/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := plog.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db := database.Connect(cfg.DatabaseURL, cfg.LogMode)

	opts := routes.Options{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cache, err := services.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			defer cache.Close()
			opts.Cache = cache
		}
	}
	opts.Indexer = services.NewSearchIndexer(db, logger, cfg.MeiliURL, cfg.MeiliAPIKey, services.LayerResolverFor(cfg.NoteLayers))

	app := routes.NewApp(cfg, true)
	routes.Register(app, db, cfg, logger, opts)

	logger.Info("starting server", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logger.Fatal("fiber.Listen error", "error", err)
	}
}
