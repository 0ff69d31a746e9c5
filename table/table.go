/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package table

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/suparena/audithistory/records"
)

// ErrNoBatches is returned by Unify when there is nothing to combine
var ErrNoBatches = stderrors.New("no batches to unify")

// Row maps column name to value. Columns absent from the map are null.
type Row = map[string]any

// Table is the union of a set of record batches. Columns are in first-seen order.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]struct{}
}

// Unify combines batches into one table. The first pass collects the column set in the order
// columns are first seen, the second builds rows in batch order then line order.
func Unify(batches []records.Batch) (*Table, error) {
	if len(batches) == 0 {
		return nil, ErrNoBatches
	}

	t := &Table{index: make(map[string]struct{})}
	total := 0
	for _, b := range batches {
		total += len(b.Records)
		t.addColumns(b)
	}

	t.Rows = make([]Row, 0, total)
	for _, b := range batches {
		for _, rec := range b.Records {
			t.Rows = append(t.Rows, Row(rec))
		}
	}
	return t, nil
}

// Append concatenates other onto t. New columns from other are added after t's own,
// in other's order. Rows are shared, not copied.
func (t *Table) Append(other *Table) *Table {
	if other == nil {
		return t
	}
	t.ensureIndex()
	for _, col := range other.Columns {
		t.addColumn(col)
	}
	t.Rows = append(t.Rows, other.Rows...)
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell renders the value at row i, column col for export. The bool is false when the value
// is missing or null, in which case the string is empty.
func (t *Table) Cell(i int, col string) (string, bool) {
	if i < 0 || i >= len(t.Rows) {
		return "", false
	}
	v, ok := t.Rows[i][col]
	if !ok || v == nil {
		return "", false
	}
	return Render(v), true
}

// Records renders every row as a slice of cells aligned with Columns.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i := range t.Rows {
		line := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			line[j], _ = t.Cell(i, col)
		}
		out[i] = line
	}
	return out
}

// Render formats a single decoded JSON value as cell text
func Render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return fmt.Sprint(val)
		}
		return string(bytes.TrimRight(buf.Bytes(), "\n"))
	}
}

func (t *Table) addColumns(b records.Batch) {
	for _, col := range b.Columns {
		t.addColumn(col)
	}
	// batches built without key order fall back to sorted keys per record
	for _, rec := range b.Records {
		var missing []string
		for k := range rec {
			if _, seen := t.index[k]; !seen {
				missing = append(missing, k)
			}
		}
		sort.Strings(missing)
		for _, k := range missing {
			t.addColumn(k)
		}
	}
}

func (t *Table) addColumn(col string) {
	if _, seen := t.index[col]; !seen {
		t.index[col] = struct{}{}
		t.Columns = append(t.Columns, col)
	}
}

func (t *Table) ensureIndex() {
	if t.index != nil {
		return
	}
	t.index = make(map[string]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		t.index[col] = struct{}{}
	}
}
