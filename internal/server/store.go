package server

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/db"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Backends are the storage handles opened from config. Close releases all of them.
type Backends struct {
	Store     repository.KVStore
	Publisher document.Publisher
	closers   []func() error
}

func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackends selects the KV backend from STORE_BACKEND and, when a bucket
// is configured, a GCS publisher for exported PDFs.
func OpenBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	b := &Backends{}
	var gcs *storage.Client
	gcsClient := func() (*storage.Client, error) {
		if gcs != nil {
			return gcs, nil
		}
		var opts []option.ClientOption
		if cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		c, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		gcs = c
		b.closers = append(b.closers, c.Close)
		return c, nil
	}

	switch cfg.StoreBackend {
	case "memory":
		b.Store = repository.NewMemoryKVStore()
	case "gcs":
		if cfg.StorageBucket == "" {
			return nil, errors.New("STORE_BACKEND=gcs requires STORAGE_BUCKET")
		}
		c, err := gcsClient()
		if err != nil {
			return nil, err
		}
		b.Store = repository.NewGCSKVStore(c, cfg.StorageBucket, cfg.StoragePrefix)
	case "db", "":
		gdb, err := db.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Migrate(gdb); err != nil {
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, sqlDB.Close)
		b.Store = repository.NewGormKVStore(gdb)
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.StorageBucket != "" {
		c, err := gcsClient()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Publisher = document.NewGCSPublisher(c, cfg.StorageBucket)
	}
	logger.Info("storage ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Bool("publisher", b.Publisher != nil))
	return b, nil
}
