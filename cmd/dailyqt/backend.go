package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/cache"
	"github.com/gchung00/daily-qt/internal/config"
	"github.com/gchung00/daily-qt/internal/ingest"
	"github.com/gchung00/daily-qt/internal/pagecache"
	"github.com/gchung00/daily-qt/internal/storage"
)

// backend is the storage selected by configuration.
type backend struct {
	store   archive.Store
	index   archive.Index
	drafts  ingest.DraftStore
	pages   pagecache.Cache
	ledger  cache.Ledger   // nil disables dedup
	cleaner *cache.Cleaner // set when the ledger lives in postgres
	closers []func() error
}

// openBackend connects the configured storage and applies pending
// migrations. Redis, when configured, takes over drafts, dedup and pages.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{pages: pagecache.Noop{}}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := storage.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, db.Close)

		if err := storage.Migrate(db.DB); err != nil {
			b.Close()
			return nil, err
		}

		ledger := cache.NewService(db.DB)
		b.store = storage.NewArchiveStore(db.DB)
		b.index = storage.NewIndexStore(db.DB)
		b.drafts = storage.NewDraftStore(db.DB)
		b.ledger = ledger
		b.cleaner = cache.NewCleaner(ledger, cache.Config{
			CleanInterval: cfg.Dedup.CleanInterval,
			KeepDuration:  cfg.Dedup.KeepDuration,
		}, logger)
	case config.BackendFile:
		b.store = storage.NewFileArchive(cfg.Storage.Dir)
		b.index = storage.NewFileIndex(cfg.Storage.IndexFile)
		b.drafts = storage.NewFileDrafts(cfg.Storage.DraftsFile)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		b.pages = pagecache.NewRedis(rdb, cfg.Redis.PageTTL)
		b.drafts = storage.NewRedisDrafts(rdb, cfg.Redis.DraftTTL)
		b.ledger = cache.NewRedisLedger(rdb, cfg.Dedup.KeepDuration)
		b.cleaner = nil
	}

	logger.Info("storage ready",
		"backend", cfg.Storage.Backend,
		"redis", cfg.Redis.Addr != "",
		"dedup", b.ledger != nil,
	)
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}
