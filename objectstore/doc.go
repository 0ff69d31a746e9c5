/*
Package objectstore defines the object store capability used by the export pipeline.

The ObjectStore interface covers the two operations the pipeline needs:

	type ObjectStore interface {
	    List(ctx context.Context, prefix string, opts ...storagemodels.ListOption) ([]storagemodels.ObjectInfo, error)
	    Download(ctx context.Context, key, localPath string) (int64, error)
	}

Implementations:
  - s3store: Amazon S3 (or any S3-compatible endpoint) via aws-sdk-go-v2
  - mock: in-memory implementation for testing

ListAll runs one listing per prefix and flattens the result, which is how a date sweep
turns its per-day prefixes into a single key list.
*/
package objectstore
