package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/cache"
	"github.com/mostviewed/trending-tracker-go/internal/collector"
	"github.com/mostviewed/trending-tracker-go/internal/config"
	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/internal/handler"
	"github.com/mostviewed/trending-tracker-go/internal/service/quota"
	"github.com/mostviewed/trending-tracker-go/internal/youtube"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

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
	log := logger.Named("server")

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
	log.Info("database connection established", zap.Int32("max_conns", pool.Config().MaxConns))

	videoRepo := repository.NewVideoRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	creatorRepo := repository.NewCreatorRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	boardRepo := repository.NewLeaderboardRepository(pool)
	quotaRepo := repository.NewQuotaRepository(pool)

	// Response cache is optional; without Redis reads just hit Postgres.
	var responseCache *cache.Cache
	if cfg.Redis.URL != "" {
		redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("redis unavailable, serving uncached", zap.Error(err))
		} else {
			responseCache = cache.New(redisClient, cfg.Cache.TTL)
			defer redisClient.Close()
			log.Info("leaderboard cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
		}
	}

	// Manual collection triggers need a YouTube client; without an API key the
	// read API still works and the trigger endpoints return 503.
	var (
		quotaManager *quota.Manager
		col          *collector.Collector
	)
	if cfg.YouTube.APIKey != "" {
		source, err := youtube.NewClient(ctx, cfg.YouTube.APIKey, cfg.YouTube.PageDelay)
		if err != nil {
			log.Warn("failed to initialize YouTube client, collection triggers disabled", zap.Error(err))
		} else {
			quotaManager = quota.NewManager(quotaRepo, cfg.YouTube.DailyQuota, cfg.YouTube.QuotaThreshold)

			countrySource := source
			if cfg.YouTube.CountriesAPIKey != "" {
				countrySource, err = youtube.NewClient(ctx, cfg.YouTube.CountriesAPIKey, cfg.YouTube.PageDelay)
				if err != nil {
					log.Warn("failed to initialize countries YouTube client, sharing the main key", zap.Error(err))
					countrySource = source
				}
			}

			var invalidator collector.CacheInvalidator
			if responseCache != nil {
				invalidator = responseCache
			}
			col = collector.New(source, countrySource, videoRepo, statsRepo, creatorRepo,
				quotaManager, invalidator, collectorConfig(cfg))
			log.Info("collection triggers enabled")
		}
	} else {
		log.Info("YouTube API key not configured, collection triggers disabled")
	}

	if len(cfg.Server.APIKeys) == 0 {
		log.Warn("no API keys configured, trigger endpoints will reject all requests")
	}

	router := handler.NewRouter(handler.Handlers{
		Leaderboard: handler.NewLeaderboardHandler(boardRepo, categoryRepo, responseCache, cfg.Server.MaxLimit),
		Creators:    handler.NewCreatorHandler(boardRepo, creatorRepo, responseCache),
		Triggers:    handler.NewTriggerHandler(col),
		Health:      handler.NewHealthHandler(pool, quotaManager),
		APIKeys:     cfg.Server.APIKeys,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				log.Error("failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		log.Info("server stopped gracefully")
	}
}

func collectorConfig(cfg *config.Config) collector.Config {
	return collector.Config{
		CallDelay:        cfg.Collector.CallDelay,
		CountryDelay:     cfg.Collector.CountryDelay,
		RefreshBatchSize: cfg.Collector.RefreshBatchSize,
		RefreshMaxAge:    cfg.Collector.RefreshMaxAge,
		CreatorBatchSize: cfg.Collector.CreatorBatchSize,
		CreatorMaxAge:    cfg.Collector.CreatorMaxAge,
		SearchDiscovery:  cfg.Collector.SearchDiscoveryEnabled,
	}
}
