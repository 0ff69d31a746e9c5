/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package downloader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/objectstore"
	"github.com/suparena/audithistory/scratch"
	"github.com/suparena/audithistory/storagemodels"
)

// NameFunc maps an object key to a flat file name inside the scratch area.
type NameFunc func(key string) string

// Downloader fetches objects one after another into a scratch area.
type Downloader struct {
	store    objectstore.ObjectStore
	logger   *zap.Logger
	progress func(storagemodels.DownloadProgress)
}

// Option configures a Downloader
type Option func(*Downloader)

// WithProgressHandler sets a callback invoked after every completed download
func WithProgressHandler(handler func(storagemodels.DownloadProgress)) Option {
	return func(d *Downloader) {
		d.progress = handler
	}
}

// New creates a Downloader reading from store
func New(store objectstore.ObjectStore, logger *zap.Logger, opts ...Option) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Downloader{store: store, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadAll retrieves every key into area and returns the local paths in key order.
// The first failure stops the run; nothing is retried.
func (d *Downloader) DownloadAll(ctx context.Context, keys []string, area *scratch.Area, name NameFunc) ([]string, error) {
	start := time.Now()
	paths := make([]string, 0, len(keys))
	owners := make(map[string]string, len(keys))

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewStageError(errors.StageDownload, key, err)
		}

		local := name(key)
		if prev, taken := owners[local]; taken {
			d.logger.Warn("local file name collision, later object overwrites earlier one",
				zap.String("file", local),
				zap.String("previous_key", prev),
				zap.String("key", key))
		}
		owners[local] = key

		dest := area.Path(local)
		n, err := d.store.Download(ctx, key, dest)
		if err != nil {
			return nil, errors.NewStageError(errors.StageDownload, key, err)
		}
		paths = append(paths, dest)

		d.logger.Debug("downloaded object",
			zap.String("key", key),
			zap.String("file", dest),
			zap.Int64("bytes", n))

		if d.progress != nil {
			d.progress(storagemodels.DownloadProgress{
				Completed: i + 1,
				Total:     len(keys),
				Key:       key,
				Bytes:     n,
				Elapsed:   time.Since(start),
			})
		}
	}

	d.logger.Info("download finished",
		zap.Int("objects", len(paths)),
		zap.Duration("elapsed", time.Since(start)))
	return paths, nil
}
