/*
Package datastore defines the persistence interface behind the export run history.

	type DataStore[T any] interface {
	    GetOne(ctx context.Context, keyInput any) (*T, error)
	    Put(ctx context.Context, entity T) error
	    QueryPartition(ctx context.Context, params *storagemodels.QueryParams) ([]T, error)
	}

Implementations:
  - ddb: DynamoDB, single-table design with templated keys
  - mock: in-memory, for tests
*/
package datastore
