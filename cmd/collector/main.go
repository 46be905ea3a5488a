package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/cache"
	"github.com/mostviewed/trending-tracker-go/internal/collector"
	"github.com/mostviewed/trending-tracker-go/internal/config"
	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/internal/queue"
	"github.com/mostviewed/trending-tracker-go/internal/service/quota"
	"github.com/mostviewed/trending-tracker-go/internal/youtube"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// workerConcurrency stays at one: collection jobs are serial API call
// sequences and the schedule never fires two at the same tick.
const workerConcurrency = 1

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("collector.main")

	if cfg.YouTube.APIKey == "" {
		log.Fatal("APP_YOUTUBE_APIKEY is required for the collection worker")
	}
	if cfg.Redis.URL == "" {
		log.Fatal("APP_REDIS_URL is required for the collection worker")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, &db.Config{
		URL:             cfg.Database.URL(),
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxLifetime,
		MaxConnIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	source, err := youtube.NewClient(ctx, cfg.YouTube.APIKey, cfg.YouTube.PageDelay)
	if err != nil {
		log.Fatal("failed to initialize YouTube client", zap.Error(err))
	}

	countrySource := source
	if cfg.YouTube.CountriesAPIKey != "" {
		countrySource, err = youtube.NewClient(ctx, cfg.YouTube.CountriesAPIKey, cfg.YouTube.PageDelay)
		if err != nil {
			log.Warn("failed to initialize countries YouTube client, sharing the main key", zap.Error(err))
			countrySource = source
		}
	}

	quotaManager := quota.NewManager(repository.NewQuotaRepository(pool),
		cfg.YouTube.DailyQuota, cfg.YouTube.QuotaThreshold)

	var invalidator collector.CacheInvalidator
	redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn("redis cache unavailable, board invalidation disabled", zap.Error(err))
	} else {
		invalidator = cache.New(redisClient, cfg.Cache.TTL)
		defer redisClient.Close()
	}

	col := collector.New(source, countrySource,
		repository.NewVideoRepository(pool),
		repository.NewStatsRepository(pool),
		repository.NewCreatorRepository(pool),
		quotaManager, invalidator,
		collector.Config{
			CallDelay:        cfg.Collector.CallDelay,
			CountryDelay:     cfg.Collector.CountryDelay,
			RefreshBatchSize: cfg.Collector.RefreshBatchSize,
			RefreshMaxAge:    cfg.Collector.RefreshMaxAge,
			CreatorBatchSize: cfg.Collector.CreatorBatchSize,
			CreatorMaxAge:    cfg.Collector.CreatorMaxAge,
			SearchDiscovery:  cfg.Collector.SearchDiscoveryEnabled,
		})

	queueClient, err := queue.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal("failed to initialize queue client", zap.Error(err))
	}
	defer queueClient.Close()

	server, err := queue.NewServer(cfg.Redis.URL, workerConcurrency, queue.NewHandler(col, queueClient))
	if err != nil {
		log.Fatal("failed to initialize worker", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("failed to start worker", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown

	log.Info("shutdown signal received", zap.String("signal", sig.String()))
	server.Shutdown()
	log.Info("collection worker stopped gracefully")
}
