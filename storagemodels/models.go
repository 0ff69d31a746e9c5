/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// ObjectInfo describes one listed object. Only Key is required by the pipeline; Size and
// LastModified are carried for logging.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// QueryParams defines parameters for a partition query against a DataStore.
type QueryParams struct {
	// PartitionKey is the already-expanded PK value, e.g. "ACCOUNT#123".
	PartitionKey string
	// SortKeyPrefix optionally restricts results with begins_with on SK.
	SortKeyPrefix string
	// SortKeyFrom and SortKeyTo, when both set, restrict SK to the inclusive range between
	// them. They cannot be combined with SortKeyPrefix.
	SortKeyFrom string
	SortKeyTo   string
	// Limit caps the number of items returned across all pages. Zero means no cap.
	Limit int32
	// ScanIndexForward specifies the order for index traversal.
	// If true, traversal is in ascending order.
	// If false (default), newest sort keys come first.
	ScanIndexForward bool
}

// HasSortKeyRange reports whether both range bounds are set
func (p *QueryParams) HasSortKeyRange() bool {
	return p.SortKeyFrom != "" && p.SortKeyTo != ""
}
