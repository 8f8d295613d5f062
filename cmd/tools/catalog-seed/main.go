// cmd/tools/catalog-seed/main.go
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"assessment-workers/internal/catalog"
	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/database"
	"assessment-workers/internal/common/logger"
)

func main() {
	fs := flag.NewFlagSet("catalog-seed", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default: configs/config.yaml lookup)")
	file := fs.String("file", "", "Schedule YAML to load (default: valuation.catalog.path, then the built-in schedule)")
	schedule := fs.String("schedule", "", "Schedule name to replace (default: valuation.catalog.schedule)")
	_ = fs.Parse(os.Args[1:])

	log := logger.New("info", "console")
	defer log.Sync()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	if *file == "" {
		*file = cfg.Valuation.Catalog.Path
	}
	if *schedule == "" {
		*schedule = cfg.Valuation.Catalog.Schedule
	}

	cat, err := catalog.LoadFile(*file)
	if err != nil {
		log.Fatal("schedule load failed", zap.Error(err), zap.String("file", *file))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		log.Fatal("postgres unreachable", zap.Error(err))
	}

	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.Warn("redis init failed, cache left as is", zap.Error(err))
			redis = nil
		}
	}
	defer redis.Close()

	n, err := catalog.Seed(ctx, pg.GetDB(), redis.GetClient(), *schedule, cat)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err), zap.Int("inserted", n))
	}

	log.Info("schedule seeded",
		zap.String("schedule", *schedule),
		zap.Int("entries", n),
		zap.Int("constructionTypes", len(cat.ConstructionTypes())),
	)
}
