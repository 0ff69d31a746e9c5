/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/audithistory/records"
)

func batch(file string, columns []string, recs ...records.Record) records.Batch {
	return records.Batch{File: file, Columns: columns, Records: recs}
}

func TestUnify(t *testing.T) {
	t.Run("union of columns with nulls for missing keys", func(t *testing.T) {
		tbl, err := Unify([]records.Batch{
			batch("1.gz", []string{"a"}, records.Record{"a": json.Number("1")}),
			batch("2.gz", []string{"b"}, records.Record{"b": json.Number("2")}),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, tbl.Columns)
		require.Equal(t, 2, tbl.Len())

		v, ok := tbl.Cell(0, "a")
		assert.True(t, ok)
		assert.Equal(t, "1", v)
		_, ok = tbl.Cell(0, "b")
		assert.False(t, ok)
		_, ok = tbl.Cell(1, "a")
		assert.False(t, ok)
		v, _ = tbl.Cell(1, "b")
		assert.Equal(t, "2", v)

		assert.Equal(t, [][]string{{"1", ""}, {"", "2"}}, tbl.Records())
	})

	t.Run("first-seen column order across batches", func(t *testing.T) {
		tbl, err := Unify([]records.Batch{
			batch("1.gz", []string{"user", "action"},
				records.Record{"user": "u1", "action": "create"}),
			batch("2.gz", []string{"time", "user", "detail"},
				records.Record{"time": "t", "user": "u2", "detail": "d"}),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"user", "action", "time", "detail"}, tbl.Columns)
	})

	t.Run("rows in batch then line order", func(t *testing.T) {
		tbl, err := Unify([]records.Batch{
			batch("1.gz", []string{"n"}, records.Record{"n": "1"}, records.Record{"n": "2"}),
			batch("2.gz", nil),
			batch("3.gz", []string{"n"}, records.Record{"n": "3"}),
		})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"1"}, {"2"}, {"3"}}, tbl.Records())
	})

	t.Run("batches without key order use sorted keys", func(t *testing.T) {
		tbl, err := Unify([]records.Batch{
			batch("1.gz", nil, records.Record{"z": "1", "m": "2", "a": "3"}),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "m", "z"}, tbl.Columns)
	})

	t.Run("empty batch list", func(t *testing.T) {
		_, err := Unify(nil)
		assert.ErrorIs(t, err, ErrNoBatches)
	})

	t.Run("only empty batches", func(t *testing.T) {
		tbl, err := Unify([]records.Batch{batch("1.gz", nil)})
		require.NoError(t, err)
		assert.Empty(t, tbl.Columns)
		assert.Zero(t, tbl.Len())
	})
}

func TestAppendAssociativity(t *testing.T) {
	a := batch("a.gz", []string{"x", "y"}, records.Record{"x": "1", "y": "2"})
	b := batch("b.gz", []string{"y", "z"}, records.Record{"y": "3", "z": "4"})
	c := batch("c.gz", []string{"w", "x"}, records.Record{"w": "5", "x": "6"}, records.Record{"x": "7"})

	left, err := Unify([]records.Batch{a, b})
	require.NoError(t, err)
	right, err := Unify([]records.Batch{c})
	require.NoError(t, err)
	whole, err := Unify([]records.Batch{a, b, c})
	require.NoError(t, err)

	combined := left.Append(right)

	assert.Equal(t, whole.Columns, combined.Columns)
	assert.Equal(t, whole.Rows, combined.Rows)
	assert.Equal(t, whole.Records(), combined.Records())
}

func TestAppend(t *testing.T) {
	t.Run("onto a literal table", func(t *testing.T) {
		tbl := &Table{Columns: []string{"a"}, Rows: []Row{{"a": "1"}}}
		tbl.Append(&Table{Columns: []string{"a", "b"}, Rows: []Row{{"b": "2"}}})

		assert.Equal(t, []string{"a", "b"}, tbl.Columns)
		assert.Equal(t, [][]string{{"1", ""}, {"", "2"}}, tbl.Records())
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		tbl := &Table{Columns: []string{"a"}}
		assert.Same(t, tbl, tbl.Append(nil))
		assert.Equal(t, []string{"a"}, tbl.Columns)
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string verbatim", "a,b \"quoted\"", "a,b \"quoted\""},
		{"number text preserved", json.Number("1.50"), "1.50"},
		{"large integer", json.Number("12345678901234567890"), "12345678901234567890"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"null", nil, ""},
		{"float", 2.5, "2.5"},
		{"int", 7, "7"},
		{"object compact", map[string]any{"b": json.Number("2"), "a": "<x>"}, `{"a":"<x>","b":2}`},
		{"array compact", []any{"x", json.Number("1"), nil}, `["x",1,null]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestCellOutOfRange(t *testing.T) {
	tbl := &Table{Columns: []string{"a"}, Rows: []Row{{"a": "1"}}}

	_, ok := tbl.Cell(5, "a")
	assert.False(t, ok)
	_, ok = tbl.Cell(-1, "a")
	assert.False(t, ok)
}
