/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/table"
)

var generatedAt = time.Date(2024, 3, 2, 14, 5, 9, 0, time.UTC)

func sampleTable() *table.Table {
	return &table.Table{
		Columns: []string{"a", "b"},
		Rows: []table.Row{
			{"a": json.Number("1")},
			{"b": "x, \"y\""},
		},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "123-456-2024-03-02T14-05-09.csv", FileName("123", "456", generatedAt, "csv"))
	assert.Equal(t, "123-2024-02-01-2024-03-02T14-05-09.xlsx", FileName("123", "2024-02-01", generatedAt, "xlsx"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" xlsx ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("parquet")
	assert.True(t, errors.IsValidationError(err))
}

func TestExportCSV(t *testing.T) {
	t.Run("header then one line per row without index column", func(t *testing.T) {
		dir := t.TempDir()
		exp, err := New(dir, FormatCSV, zaptest.NewLogger(t))
		require.NoError(t, err)

		path, err := exp.Export(sampleTable(), "123", "456", generatedAt)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "123-456-2024-03-02T14-05-09.csv"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,\n,\"x, \"\"y\"\"\"\n", string(data))

		lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		assert.Len(t, lines, 3)
	})

	t.Run("BOM prefix", func(t *testing.T) {
		dir := t.TempDir()
		exp, err := New(dir, FormatCSV, nil, WithBOM(true))
		require.NoError(t, err)

		path, err := exp.Export(sampleTable(), "123", "456", generatedAt)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, utf8BOM, data[:3])
		assert.True(t, strings.HasPrefix(string(data[3:]), "a,b\n"))
	})

	t.Run("creates the output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "out")
		exp, err := New(dir, FormatCSV, nil)
		require.NoError(t, err)

		path, err := exp.Export(sampleTable(), "1", "2", generatedAt)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("unwritable output directory", func(t *testing.T) {
		base := t.TempDir()
		blocker := filepath.Join(base, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		exp, err := New(filepath.Join(blocker, "out"), FormatCSV, nil)
		require.NoError(t, err)

		_, err = exp.Export(sampleTable(), "1", "2", generatedAt)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrExport)
	})
}

func TestExportXLSX(t *testing.T) {
	dir := t.TempDir()
	exp, err := New(dir, FormatXLSX, nil)
	require.NoError(t, err)

	path, err := exp.Export(sampleTable(), "123", "456", generatedAt)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".xlsx"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())

	cells := map[string]string{"A1": "a", "B1": "b", "A2": "1", "B2": "", "A3": "", "B3": "x, \"y\""}
	for cell, want := range cells {
		got, err := f.GetCellValue(DefaultSheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(t.TempDir(), Format("json"), nil)
	assert.True(t, errors.IsValidationError(err))
}
