package app

import (
	"context"
	"fmt"

	"github.com/kapu/trendwatch-go/internal/config"
	"github.com/kapu/trendwatch-go/internal/server"
	"github.com/kapu/trendwatch-go/internal/service"
	"github.com/kapu/trendwatch-go/internal/service/cache"
	"github.com/kapu/trendwatch-go/internal/service/database"
	"github.com/kapu/trendwatch-go/internal/service/mailer"
	"github.com/kapu/trendwatch-go/internal/service/sentiment"
	"github.com/kapu/trendwatch-go/internal/service/subscription"
	"go.uber.org/zap"
)

// Container holds every wired service. Build assembles them in dependency
// order; Close tears them down in reverse.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Cache       *cache.Service
	Postgres    *database.PostgresService
	Subscribers *subscription.Repository
	Collector   *service.CollectorService
	Labeler     *sentiment.Labeler
	Refresher   *service.RefresherService
	Mailer      *mailer.Mailer
	Server      *server.Server

	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Redis and Postgres are optional at startup: without Redis there is no
	// warm start or label memoization, without Postgres no subscriptions.
	cacheSvc, err := cache.NewService(cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", zap.Error(err))
	} else {
		c.Cache = cacheSvc
		c.closers = append(c.closers, cacheSvc.Close)
	}

	postgres, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		logger.Warn("PostgreSQL unavailable, subscriptions disabled", zap.Error(err))
	} else {
		c.Postgres = postgres
		c.closers = append(c.closers, postgres.Close)

		repo := subscription.NewRepository(postgres, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to prepare subscription schema: %w", err)
		}
		c.Subscribers = repo
	}

	var primary, fallback sentiment.Provider
	if cfg.Sentiment.OpenAIAPIKey != "" {
		primary = sentiment.NewOpenAIProvider(cfg.Sentiment.OpenAIAPIKey, cfg.Sentiment.OpenAIModel, logger)
	}
	if cfg.Sentiment.GeminiAPIKey != "" {
		gemini, err := sentiment.NewGeminiProvider(ctx, cfg.Sentiment.GeminiAPIKey, cfg.Sentiment.GeminiModel, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		if primary == nil {
			primary = gemini
		} else if cfg.Sentiment.EnableFallback {
			fallback = gemini
		}
	}
	if primary == nil {
		c.Close()
		return nil, fmt.Errorf("no sentiment provider configured")
	}

	var labelCache sentiment.LabelCache
	if c.Cache != nil {
		labelCache = c.Cache
	}
	c.Labeler = sentiment.NewLabeler(primary, fallback, labelCache, sentiment.LabelerConfig{
		Mode:      sentiment.Mode(cfg.Sentiment.Mode),
		BatchSize: cfg.Sentiment.BatchSize,
		CacheTTL:  cfg.Sentiment.LabelCacheTTL,
	}, logger)

	fetcher := service.NewFetcherService(logger)
	parser := service.NewParserService(logger)
	c.Collector = service.NewCollectorService(cfg.Trends, fetcher, parser, logger)
	c.Refresher = service.NewRefresherService(c.Collector, c.Labeler, c.Cache, cfg.Trends.RefreshInterval, logger)

	c.Mailer = mailer.NewMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Password: cfg.SMTP.Password,
	}, logger)

	var store server.SubscriberStore
	if c.Subscribers != nil {
		store = c.Subscribers
	}
	c.Server = server.NewServer(cfg.Server, server.Dependencies{
		Snapshots: c.Refresher,
		Store:     store,
		Mail:      c.Mailer,
		Regions:   cfg.Trends.Regions,
		DigestN:   cfg.SMTP.DigestN,
		Logger:    logger,
	})

	c.Refresher.OnRefresh(func(snap *service.Snapshot) {
		c.Server.Hub().Broadcast(server.RefreshEvent{
			Type:        "refresh",
			Records:     snap.Dataset.Len(),
			RefreshedAt: snap.RefreshedAt,
		})
	})

	logger.Info("Application container built",
		zap.Bool("cache", c.Cache != nil),
		zap.Bool("subscriptions", c.Subscribers != nil),
		zap.String("primary_provider", primary.Name()),
		zap.Bool("fallback_provider", fallback != nil))

	return c, nil
}

// Close shuts services down in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Error("Failed to close service", zap.Error(err))
		}
	}
}
