/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package s3store implements objectstore.ObjectStore with the AWS SDK for Go v2.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/suparena/audithistory/storagemodels"
)

// Client is the subset of the S3 API the store calls. *sdk.Client satisfies it.
type Client interface {
	sdk.ListObjectsV2APIClient
	manager.DownloadAPIClient
}

// Store implements objectstore.ObjectStore on top of one S3 bucket.
type Store struct {
	client     Client
	bucket     string
	downloader *manager.Downloader
	logger     *zap.Logger
}

// NewS3Client creates a client from cfg. A non-empty endpoint targets an S3 compatible
// store instead of AWS.
func NewS3Client(cfg aws.Config, endpoint string) *sdk.Client {
	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if endpoint != "" {
			// S3-compatible stores generally need path-style addressing
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// New constructs a Store for bucket. Downloads run one part at a time.
func New(client Client, bucket string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		bucket: bucket,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
		logger: logger.With(zap.String("bucket", bucket)),
	}
}

// List returns every object under prefix. Pages without Contents are skipped.
func (s *Store) List(ctx context.Context, prefix string, opts ...storagemodels.ListOption) ([]storagemodels.ObjectInfo, error) {
	options := storagemodels.ApplyListOptions(opts...)

	input := &sdk.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	paginator := sdk.NewListObjectsV2Paginator(s.client, input, func(o *sdk.ListObjectsV2PaginatorOptions) {
		o.Limit = options.PageSize
	})

	progress := storagemodels.ListProgress{
		Prefix:    prefix,
		StartTime: time.Now(),
	}

	var (
		objects    []storagemodels.ObjectInfo
		totalBytes int64
		newest     time.Time
	)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListObjectsV2 s3://%s/%s%s: %w", s.bucket, prefix, errorCode(err), err)
		}
		progress.PagesProcessed++

		if len(page.Contents) == 0 {
			progress.EmptyPages++
		}
		for _, obj := range page.Contents {
			info := storagemodels.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			totalBytes += info.Size
			if info.LastModified.After(newest) {
				newest = info.LastModified
			}
			objects = append(objects, info)
		}
		progress.KeysListed = len(objects)

		if options.ProgressHandler != nil {
			options.ProgressHandler(progress)
		}
	}

	s.logger.Debug("listed prefix",
		zap.String("prefix", prefix),
		zap.Int("keys", len(objects)),
		zap.Int64("bytes", totalBytes),
		zap.Time("newest", newest),
		zap.Int("pages", progress.PagesProcessed),
		zap.Int("empty_pages", progress.EmptyPages))
	return objects, nil
}

// Download writes the object at key to localPath and returns the number of bytes written.
// A partially written file is removed on failure.
func (s *Store) Download(ctx context.Context, key, localPath string) (int64, error) {
	f, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	n, err := s.downloader.Download(ctx, f, &sdk.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(localPath)
		return 0, fmt.Errorf("GetObject s3://%s/%s%s: %w", s.bucket, key, errorCode(err), err)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("failed to close %s: %w", localPath, closeErr)
	}
	return n, nil
}

// errorCode formats the service error code carried by err, if any
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		return " (" + apiErr.ErrorCode() + ")"
	}
	return ""
}
