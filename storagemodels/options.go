/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// ListProgress tracks listing progress for one prefix
type ListProgress struct {
	Prefix         string    // Prefix being listed
	PagesProcessed int       // Pages received so far, including empty ones
	EmptyPages     int       // Pages that carried no Contents
	KeysListed     int       // Keys collected for this prefix
	StartTime      time.Time // When listing of this prefix started
}

// DownloadProgress is reported after each completed download
type DownloadProgress struct {
	Completed int           // Downloads finished, 1-based
	Total     int           // Keys scheduled for download
	Key       string        // Key that just finished
	Bytes     int64         // Bytes written for Key
	Elapsed   time.Duration // Time since the first download started
}

// ListOptions configures listing behavior
type ListOptions struct {
	PageSize        int32              // Keys per page requested from the store (default: 1000)
	ProgressHandler func(ListProgress) // Optional per-page callback
}

// ListOption is a functional option for configuring listing
type ListOption func(*ListOptions)

// DefaultListOptions returns default listing options
func DefaultListOptions() ListOptions {
	return ListOptions{
		PageSize: 1000,
	}
}

// ApplyListOptions folds opts over the defaults
func ApplyListOptions(opts ...ListOption) ListOptions {
	options := DefaultListOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithPageSize sets the listing page size
func WithPageSize(size int32) ListOption {
	return func(opts *ListOptions) {
		if size > 0 {
			opts.PageSize = size
		}
	}
}

// WithListProgress sets a progress callback invoked after every page
func WithListProgress(handler func(ListProgress)) ListOption {
	return func(opts *ListOptions) {
		opts.ProgressHandler = handler
	}
}
