package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/equipment-market/internal/cache"
	"github.com/cory-johannsen/equipment-market/internal/chain"
	"github.com/cory-johannsen/equipment-market/internal/config"
	"github.com/cory-johannsen/equipment-market/internal/history"
	"github.com/cory-johannsen/equipment-market/internal/observability"
	"github.com/cory-johannsen/equipment-market/internal/pricing"
	"github.com/cory-johannsen/equipment-market/internal/storage/postgres"
)

// app holds the configured dependencies shared by commands that need them.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	redis    *redis.Client
	reader   chain.Reader
	recorder history.Recorder
	closers  []func()
}

// redisPingTimeout bounds the startup check of the Redis server.
const redisPingTimeout = 5 * time.Second

// newApp loads configuration, builds the logger, verifies the pricing
// artifact when configured to, connects to Redis when configured, and opens
// the chain reader and the history backend.
//
// Postcondition: The caller must call close on the returned app.
func newApp(ctx context.Context, configPath string) (*app, error) {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "equipctl")
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if cfg.Pricing.VerifyOnStart {
		table, err := pricing.Load(cfg.Pricing.Artifact)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := pricing.Verify(table); err != nil {
			a.close()
			return nil, err
		}
		logger.Debug("pricing artifact verified", zap.String("version", table.Version))
	}

	if cfg.Redis.Enabled() {
		client, err := cache.NewClient(cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.redis = client
		logger.Debug("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	if err := a.openReader(); err != nil {
		a.close()
		return nil, err
	}

	switch cfg.Chain.HistoryBackend {
	case config.HistoryPostgres:
		store, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.recorder = store.History
	case config.HistoryRedis:
		a.recorder = history.NewRedisRecorder(a.redis, cfg.Chain.HistoryKey, cfg.Chain.HistoryLimit)
	default:
		a.recorder = history.NewMemoryRecorder(cfg.Chain.HistoryLimit)
	}

	logger.Debug("initialized",
		zap.String("history_backend", cfg.Chain.HistoryBackend),
		zap.Duration("elapsed", time.Since(start)),
	)
	return a, nil
}

// openReader selects the snapshot or offline reader and puts the equipment
// cache in front of it when Redis is available.
func (a *app) openReader() error {
	var reader chain.Reader = chain.OfflineReader{}
	if path := a.cfg.Chain.Snapshot; path != "" {
		snap, err := chain.LoadSnapshot(path)
		if err != nil {
			return err
		}
		a.logger.Debug("chain snapshot loaded", zap.String("path", path), zap.Uint64("block", snap.Block()))
		reader = snap
	}
	if a.redis != nil {
		reader = cache.NewEquipmentCache(reader, a.redis, a.cfg.Redis.EquipmentTTL, a.logger)
	}
	a.reader = reader
	return nil
}

// marketplace returns a Marketplace that prints transactions to w.
func (a *app) marketplace(w io.Writer) *chain.Marketplace {
	return chain.NewMarketplace(a.reader, chain.PrintSender{W: w}, a.recorder, a.logger)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
