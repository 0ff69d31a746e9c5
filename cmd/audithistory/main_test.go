/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/suparena/audithistory/config"
	"github.com/suparena/audithistory/datastore"
	dsmock "github.com/suparena/audithistory/datastore/mock"
	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/history"
	"github.com/suparena/audithistory/objectstore"
	"github.com/suparena/audithistory/objectstore/mock"
)

func gz(t *testing.T, lines string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(lines))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func useStore(t *testing.T, store objectstore.ObjectStore, err error) {
	t.Helper()
	orig := newObjectStore
	newObjectStore = func(context.Context, *config.Config, *zap.Logger) (objectstore.ObjectStore, error) {
		return store, err
	}
	t.Cleanup(func() { newObjectStore = orig })
}

func useHistory(t *testing.T, ds datastore.DataStore[history.ExportRun]) {
	t.Helper()
	orig := newHistoryStore
	newHistoryStore = func(context.Context, *config.Config) (datastore.DataStore[history.ExportRun], error) {
		return ds, nil
	}
	t.Cleanup(func() { newHistoryStore = orig })
}

// invoke runs the command with scratch and output directories under a temp dir
func invoke(t *testing.T, args ...string) (int, string, string, string) {
	t.Helper()
	base := t.TempDir()
	out := filepath.Join(base, "out")
	args = append([]string{
		"--scratch-dir", filepath.Join(base, "tmp"),
		"--output-dir", out,
		"--log-level", "error",
	}, args...)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String(), out
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--version"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "audithistory version")
	assert.Contains(t, stdout.String(), "Go version:")
}

func TestRunUsageErrors(t *testing.T) {
	useStore(t, mock.New(), nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing account", []string{}, "--account_id is required"},
		{"bad timestamp", []string{"--account_id", "1", "--timestamp", "03/02/2024"}, ""},
		{"bad format", []string{"--account_id", "1", "--format", "pdf"}, "Format"},
		{"bad page size", []string{"--account_id", "1", "--page-size", "5000"}, "PageSize"},
		{"unknown flag", []string{"--nope"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr, _ := invoke(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRunDirectExport(t *testing.T) {
	store := mock.New().
		WithObject("aw_id/account_id=1/adwords_id=2/a.gz", gz(t, "{\"a\":1}\n")).
		WithObject("aw_id/account_id=1/adwords_id=2/b.gz", gz(t, "{\"b\":2}\n"))
	useStore(t, store, nil)

	code, stdout, _, out := invoke(t, "--account_id", "1", "--aw_id", "2")
	require.Equal(t, exitOK, code)

	assert.Contains(t, stdout, "Downloaded 2 of 2.")
	assert.Contains(t, stdout, "Download finished. Starting parsing data.")
	assert.Contains(t, stdout, "Exported 2 rows and 2 columns from 2 objects")
	assert.Contains(t, stdout, msgEnd)

	files, err := filepath.Glob(filepath.Join(out, "1-2-*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\n,2\n", string(data))
}

func TestRunXLSXExport(t *testing.T) {
	store := mock.New().WithObject("aw_id/account_id=1/adwords_id=2/a.gz", gz(t, "{\"a\":1}\n"))
	useStore(t, store, nil)

	code, _, _, out := invoke(t, "--account_id", "1", "--aw_id", "2", "--format", "XLSX")
	require.Equal(t, exitOK, code)

	files, err := filepath.Glob(filepath.Join(out, "1-2-*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRunNoData(t *testing.T) {
	useStore(t, mock.New(), nil)

	code, stdout, _, out := invoke(t, "--account_id", "1", "--timestamp", "2024-03-01")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No data found for account 1 (2024-03-01).")
	assert.Contains(t, stdout, msgEnd)
	assert.NoDirExists(t, out)
}

func TestRunFailures(t *testing.T) {
	t.Run("client init", func(t *testing.T) {
		useStore(t, nil, errors.NewStageError(errors.StageClient, "", stderrors.New("no region")))

		code, stdout, stderr, _ := invoke(t, "--account_id", "1", "--aw_id", "2")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, hintClientInit)
		assert.Contains(t, stdout, msgFailed)
	})

	t.Run("listing", func(t *testing.T) {
		useStore(t, mock.New().WithListError(stderrors.New("ExpiredToken")), nil)

		code, stdout, stderr, _ := invoke(t, "--account_id", "1", "--aw_id", "2")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "ExpiredToken")
		assert.Contains(t, stderr, hintListing)
		assert.Contains(t, stdout, msgFailed)
	})

	t.Run("malformed record with --strict", func(t *testing.T) {
		store := mock.New().WithObject("aw_id/account_id=1/adwords_id=2/a.gz", gz(t, "{oops\n"))
		useStore(t, store, nil)

		code, stdout, stderr, out := invoke(t, "--account_id", "1", "--aw_id", "2", "--strict")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "a.gz:1")
		assert.Contains(t, stdout, msgFailed)
		assert.NoDirExists(t, out)
	})

	t.Run("malformed record skipped by default", func(t *testing.T) {
		store := mock.New().WithObject("aw_id/account_id=1/adwords_id=2/a.gz", gz(t, "{oops\n{\"a\":1}\n"))
		useStore(t, store, nil)

		code, stdout, _, _ := invoke(t, "--account_id", "1", "--aw_id", "2")
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Skipped 1 malformed records.")
	})
}

func TestRunRecordsHistory(t *testing.T) {
	store := mock.New().WithObject("aw_id/account_id=1/adwords_id=2/a.gz", gz(t, "{\"a\":1}\n"))
	useStore(t, store, nil)
	ds := dsmock.New[history.ExportRun](history.Keys)
	useHistory(t, ds)

	code, _, _, _ := invoke(t, "--account_id", "1", "--aw_id", "2", "--history-table", "export-runs")
	require.Equal(t, exitOK, code)
	assert.Equal(t, 1, ds.Count())

	var stdout, stderr bytes.Buffer
	code = run(context.Background(), []string{"--account_id", "1", "--list-runs", "--history-table", "export-runs"}, &stdout, &stderr)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "GENERATED AT")
	assert.Contains(t, stdout.String(), history.StatusSucceeded)
	assert.Contains(t, stdout.String(), "1-2-")

	stdout.Reset()
	code = run(context.Background(), []string{"--account_id", "1", "--list-runs", "--history-table", "export-runs", "--since", "2000-01-01"}, &stdout, &stderr)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), history.StatusSucceeded)

	code = run(context.Background(), []string{"--account_id", "1", "--list-runs", "--history-table", "export-runs", "--since", "yesterday"}, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
}

func TestListRunsNeedsTable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--account_id", "1", "--list-runs"}, &stdout, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "--history-table")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, []history.ExportRun{
		{GeneratedAt: "2024-03-02T14:05:09.000Z", RunID: "r1", Mode: "direct", SubEntityID: "456", ObjectCount: 2, RowCount: 3, Status: history.StatusSucceeded},
		{GeneratedAt: "garbled", RunID: "r2", Mode: "sweep", StartDate: "2024-03-01", Status: history.StatusNoData},
	})

	out := buf.String()
	assert.Contains(t, out, "2024-03-02 14:05:09")
	assert.Contains(t, out, "garbled")
	assert.Contains(t, out, "2024-03-01")
}

func TestRunLogsListingProgress(t *testing.T) {
	store := mock.New().WithObject("aw_id/account_id=1/adwords_id=2/a.gz", gz(t, "{\"a\":1}\n"))
	useStore(t, store, nil)

	core, logs := observer.New(zap.DebugLevel)
	orig := newLogger
	newLogger = func(string, string) (*zap.Logger, error) { return zap.New(core), nil }
	t.Cleanup(func() { newLogger = orig })

	code, _, _, _ := invoke(t, "--account_id", "1", "--aw_id", "2", "--page-size", "1")
	require.Equal(t, exitOK, code)

	entries := logs.FilterMessage("listing").All()
	require.NotEmpty(t, entries)
	fields := entries[len(entries)-1].ContextMap()
	assert.Equal(t, "aw_id/account_id=1/adwords_id=2", fields["prefix"])
	assert.Equal(t, int64(1), fields["keys"])
}

func TestPrintRunsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "No export runs recorded.\n", buf.String())
}
