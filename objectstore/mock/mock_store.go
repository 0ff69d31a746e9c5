/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory ObjectStore for testing
package mock

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/suparena/audithistory/storagemodels"
)

// Store is an in-memory implementation of objectstore.ObjectStore
type Store struct {
	mu             sync.RWMutex
	objects        map[string][]byte
	listError      error
	downloadErrors map[string]error

	listedPrefixes []string
	downloadedKeys []string
}

// New creates an empty mock Store
func New() *Store {
	return &Store{
		objects:        make(map[string][]byte),
		downloadErrors: make(map[string]error),
	}
}

// WithObject stores data under key
func (m *Store) WithObject(key string, data []byte) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return m
}

// WithListError makes every List call fail with err
func (m *Store) WithListError(err error) *Store {
	m.listError = err
	return m
}

// WithDownloadError makes downloads of key fail with err
func (m *Store) WithDownloadError(key string, err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrors[key] = err
	return m
}

// List returns keys under prefix in lexical order, split into pages of the configured size
func (m *Store) List(ctx context.Context, prefix string, opts ...storagemodels.ListOption) ([]storagemodels.ObjectInfo, error) {
	options := storagemodels.ApplyListOptions(opts...)

	m.mu.Lock()
	m.listedPrefixes = append(m.listedPrefixes, prefix)
	m.mu.Unlock()

	if m.listError != nil {
		return nil, m.listError
	}

	m.mu.RLock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sizes := make(map[string]int, len(keys))
	for _, k := range keys {
		sizes[k] = len(m.objects[k])
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	progress := storagemodels.ListProgress{Prefix: prefix, StartTime: time.Now()}
	objects := make([]storagemodels.ObjectInfo, 0, len(keys))
	for start := 0; start == 0 || start < len(keys); start += int(options.PageSize) {
		end := start + int(options.PageSize)
		if end > len(keys) {
			end = len(keys)
		}
		progress.PagesProcessed++
		if start == end {
			progress.EmptyPages++
		}
		for _, k := range keys[start:end] {
			objects = append(objects, storagemodels.ObjectInfo{Key: k, Size: int64(sizes[k])})
		}
		progress.KeysListed = len(objects)
		if options.ProgressHandler != nil {
			options.ProgressHandler(progress)
		}
	}
	return objects, nil
}

// Download writes the stored bytes for key to localPath
func (m *Store) Download(ctx context.Context, key, localPath string) (int64, error) {
	m.mu.Lock()
	m.downloadedKeys = append(m.downloadedKeys, key)
	err := m.downloadErrors[key]
	data, ok := m.objects[key]
	m.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("object %q not found", key)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ListedPrefixes returns every prefix passed to List, in call order
func (m *Store) ListedPrefixes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.listedPrefixes...)
}

// DownloadedKeys returns every key passed to Download, in call order
func (m *Store) DownloadedKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.downloadedKeys...)
}
