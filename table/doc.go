// Package table merges parsed record batches into a single table whose columns are the union
// of every record's keys, in the order they were first seen. Records missing a column hold
// null for it.
package table
