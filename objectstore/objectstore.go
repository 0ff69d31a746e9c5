/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"context"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/storagemodels"
)

// ObjectStore is the capability the pipeline needs from a bucket: paginated listing under
// a key prefix and download of one object to a local path.
type ObjectStore interface {
	List(ctx context.Context, prefix string, opts ...storagemodels.ListOption) ([]storagemodels.ObjectInfo, error)

	Download(ctx context.Context, key, localPath string) (int64, error)
}

// ListAll lists every prefix in order and concatenates the keys: prefix order, then page
// order, then order within a page. Keys are not deduplicated. The first failing prefix
// aborts the whole listing.
func ListAll(ctx context.Context, store ObjectStore, prefixes []string, opts ...storagemodels.ListOption) ([]string, error) {
	var keys []string
	for _, prefix := range prefixes {
		objects, err := store.List(ctx, prefix, opts...)
		if err != nil {
			return nil, errors.NewStageError(errors.StageList, prefix, err)
		}
		for _, obj := range objects {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// Dedupe drops repeated keys, keeping the first occurrence, and reports how many were dropped.
func Dedupe(keys []string) ([]string, int) {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, len(keys) - len(out)
}
