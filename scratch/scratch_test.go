/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scratch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/suparena/audithistory/errors"
)

func TestAcquire(t *testing.T) {
	t.Run("creates a missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "tmp")

		area, err := Acquire(dir, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.DirExists(t, area.Dir())
		assert.FileExists(t, filepath.Join(dir, MarkerFile))
		assert.Equal(t, filepath.Join(dir, "a.gz"), area.Path("a.gz"))
	})

	t.Run("accepts an existing empty directory", func(t *testing.T) {
		dir := t.TempDir()

		area, err := Acquire(dir, nil)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(area.Dir(), MarkerFile))
	})

	t.Run("wipes stale contents from a previous run", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "tmp")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFile), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.gz"), []byte("old"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "x"), []byte("old"), 0o644))

		area, err := Acquire(dir, nil)
		require.NoError(t, err)

		entries, err := os.ReadDir(area.Dir())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, MarkerFile, entries[0].Name())
	})

	t.Run("refuses dangerous directories", func(t *testing.T) {
		for _, dir := range []string{"", ".", "./", "/", "..", "../x", "a/../.."} {
			_, err := Acquire(dir, nil)
			require.Error(t, err, dir)
			assert.ErrorIs(t, err, errors.ErrScratch)
			assert.True(t, errors.IsValidationError(err))
		}
	})

	t.Run("refuses a directory that was not created as a scratch area", func(t *testing.T) {
		dir := t.TempDir()
		keep := filepath.Join(dir, "precious.txt")
		require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

		_, err := Acquire(dir, nil)
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.FileExists(t, keep)
	})

	t.Run("refuses a regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tmp")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, err := Acquire(path, nil)
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.FileExists(t, path)
	})

	t.Run("fails when the parent is a file", func(t *testing.T) {
		parent := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(parent, []byte("x"), 0o644))

		_, err := Acquire(filepath.Join(parent, "tmp"), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrScratch)
	})
}

func TestRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")
	area, err := Acquire(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(area.Path("a.gz"), []byte("x"), 0o644))

	require.NoError(t, area.Release())
	assert.NoDirExists(t, dir)

	// second release is a no-op
	require.NoError(t, area.Release())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestAcquireRefusesWorkingDirectoryAncestors(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	work := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(work, 0o755))
	keep := filepath.Join(root, "precious.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))
	// a marker must not make an ancestor acceptable
	require.NoError(t, os.WriteFile(filepath.Join(root, MarkerFile), nil, 0o644))
	chdir(t, work)

	for _, dir := range []string{"..", root, work, "../work"} {
		_, err := Acquire(dir, nil)
		require.Error(t, err, dir)
		assert.ErrorIs(t, err, errors.ErrScratch, dir)
		assert.True(t, errors.IsValidationError(err), dir)
	}

	assert.FileExists(t, keep)
	assert.DirExists(t, work)

	area, err := Acquire("tmp", nil)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(work, "tmp"))
	require.NoError(t, area.Release())
}
