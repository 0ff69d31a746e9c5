/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Required key attributes every index map must template
const (
	PartitionKey = "PK"
	SortKey      = "SK"
)

var (
	indexMaps = make(map[reflect.Type]map[string]string)
	mu        sync.RWMutex
)

// RegisterIndexMap associates T with its key templates, e.g.
// {"PK": "ACCOUNT#{AccountID}", "SK": "RUN#{GeneratedAt}#{RunID}"}.
// Both PK and SK must be present.
func RegisterIndexMap[T any](idxMap map[string]string) error {
	for _, k := range []string{PartitionKey, SortKey} {
		if idxMap[k] == "" {
			return fmt.Errorf("index map for %s is missing %s", typeOf[T](), k)
		}
	}

	copied := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		copied[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMaps[typeOf[T]()] = copied
	return nil
}

// GetIndexMap retrieves the index map for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMaps[typeOf[T]()]
	return m, ok
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
