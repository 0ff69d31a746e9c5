/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/audithistory/storagemodels"
)

type DataStore[T any] interface {
	// GetOne fetches the entity whose key templates expand from keyInput. keyInput is any
	// value carrying the fields the templates reference, usually a partially filled T.
	GetOne(ctx context.Context, keyInput any) (*T, error)

	Put(ctx context.Context, entity T) error

	// QueryPartition returns the entities under one partition key, ordered by sort key.
	QueryPartition(ctx context.Context, params *storagemodels.QueryParams) ([]T, error)
}
