/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory DataStore for testing
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/storagemodels"
)

// KeyFunc returns the partition and sort key of an entity or key value
type KeyFunc[T any] func(keyInput any) (pk, sk string, err error)

// DataStore is a mock implementation of datastore.DataStore[T] for testing
type DataStore[T any] struct {
	mu       sync.RWMutex
	data     map[string]map[string]T // pk -> sk -> entity
	keyFunc  KeyFunc[T]
	putError error
	getError error
	puts     int
}

// New creates a mock DataStore that derives keys with keyFunc
func New[T any](keyFunc KeyFunc[T]) *DataStore[T] {
	return &DataStore[T]{
		data:    make(map[string]map[string]T),
		keyFunc: keyFunc,
	}
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.putError = err
	return m
}

// WithGetError makes GetOne and QueryPartition return an error
func (m *DataStore[T]) WithGetError(err error) *DataStore[T] {
	m.getError = err
	return m
}

// GetOne retrieves an entity by the keys derived from keyInput
func (m *DataStore[T]) GetOne(ctx context.Context, keyInput any) (*T, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	pk, sk, err := m.keyFunc(keyInput)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if entity, exists := m.data[pk][sk]; exists {
		return &entity, nil
	}

	var zero T
	return nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), pk+"|"+sk)
}

// Put stores an entity, replacing any entity with the same keys
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	if m.putError != nil {
		return m.putError
	}
	pk, sk, err := m.keyFunc(entity)
	if err != nil {
		return err
	}
	if pk == "" || sk == "" {
		return errors.NewValidationError("key", "unable to extract key from entity")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[pk] == nil {
		m.data[pk] = make(map[string]T)
	}
	m.data[pk][sk] = entity
	m.puts++
	return nil
}

// QueryPartition returns entities under params.PartitionKey ordered by sort key
func (m *DataStore[T]) QueryPartition(ctx context.Context, params *storagemodels.QueryParams) ([]T, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	if params == nil || params.PartitionKey == "" {
		return nil, errors.NewValidationError("PartitionKey", "partition key is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	partition := m.data[params.PartitionKey]
	sks := make([]string, 0, len(partition))
	for sk := range partition {
		if params.HasSortKeyRange() {
			if sk >= params.SortKeyFrom && sk <= params.SortKeyTo {
				sks = append(sks, sk)
			}
		} else if strings.HasPrefix(sk, params.SortKeyPrefix) {
			sks = append(sks, sk)
		}
	}
	sort.Strings(sks)
	if !params.ScanIndexForward {
		sort.Sort(sort.Reverse(sort.StringSlice(sks)))
	}
	if params.Limit > 0 && len(sks) > int(params.Limit) {
		sks = sks[:params.Limit]
	}

	results := make([]T, 0, len(sks))
	for _, sk := range sks {
		results = append(results, partition[sk])
	}
	return results, nil
}

// Count returns the number of stored entities
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.data {
		n += len(p)
	}
	return n
}

// Puts returns how many Put calls succeeded
func (m *DataStore[T]) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
