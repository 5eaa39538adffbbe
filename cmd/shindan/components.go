package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/advisor"
	"github.com/hyperjump/shindan/internal/cache"
	"github.com/hyperjump/shindan/internal/chat"
	"github.com/hyperjump/shindan/internal/config"
	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/ranking"
	"github.com/hyperjump/shindan/internal/storage"
)

const importTimeout = 30 * time.Second

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Advisor   *advisor.Service
	Knowledge *knowledge.Base
	logger    *zap.Logger
}

// Close waits for pending session writes and closes storage.
func (c *Components) Close() {
	if c.Advisor != nil {
		c.Advisor.Wait()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// Reload loads the knowledge base at path, imports it when its content changed, and swaps
// the advisor's extractor tables. An invalid file leaves the running data untouched.
func (c *Components) Reload(ctx context.Context, path string) error {
	kb, err := knowledge.Load(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()
	changed, err := c.Storage.Import(ctx, kb, false)
	if err != nil {
		return err
	}
	c.Knowledge = kb
	c.Advisor.SetExtractor(kb.Extractor())
	c.logger.Info("knowledge base reloaded", zap.String("path", path), zap.Bool("changed", changed))
	return nil
}

func loadKnowledge(cfg *config.Config) (*knowledge.Base, error) {
	if cfg.Knowledge.Path == "" {
		return knowledge.Default()
	}
	return knowledge.Load(cfg.Knowledge.Path)
}

func openCache(cfg *config.CacheConfig) (cache.Client, error) {
	if cfg.URL != "" {
		return cache.NewRedisClientFromURL(cfg.URL, cfg.Prefix)
	}
	return cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Prefix:   cfg.Prefix,
	})
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	sqlStore, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	var store storage.Storage = sqlStore

	if cfg.Cache.Enabled {
		client, err := openCache(&cfg.Cache)
		if err != nil {
			logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
			client = cache.NewMemoryClient()
		}
		store = cache.NewStore(sqlStore, client, cfg.Cache.TTL, cache.WithLogger(logger))
		logger.Info("cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	kb, err := loadKnowledge(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	if cfg.Knowledge.ImportOnStartOrDefault() {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		changed, err := store.Import(ctx, kb, false)
		cancel()
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to import knowledge base: %w", err)
		}
		logger.Info("knowledge base ready",
			zap.String("driver", sqlStore.Driver()),
			zap.Int("symptoms", len(kb.Symptoms)),
			zap.Int("advice", len(kb.Advice)),
			zap.Bool("imported", changed))
	}

	opts := []advisor.Option{
		advisor.WithLogger(logger),
		advisor.WithRanker(ranking.NewRanker(&cfg.Ranking)),
		advisor.WithFormatter(chat.NewFormatter(&cfg.Chat)),
		advisor.WithExtractor(kb.Extractor()),
		advisor.WithStats(store),
		advisor.WithQueryTimeout(cfg.Storage.QueryTimeout),
		advisor.WithSessionTimeout(cfg.Session.Timeout),
	}
	if cfg.Session.LoggingEnabledOrDefault() {
		opts = append(opts, advisor.WithSessionLogger(store))
	}

	return &Components{
		Storage:   store,
		Advisor:   advisor.NewService(store, store, opts...),
		Knowledge: kb,
		logger:    logger,
	}, nil
}
