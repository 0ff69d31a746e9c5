/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package scratch manages the local directory that holds downloaded objects for one run.
//
// An Area is acquired at the start of a run, which wipes anything a previous failed run
// left behind, and released on every exit path:
//
//	area, err := scratch.Acquire("tmp", logger)
//	if err != nil {
//	    return err
//	}
//	defer area.Release()
//
// Acquire only wipes a directory it created itself: an existing directory must be empty or
// carry MarkerFile. Directories at or above the working directory are always refused.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/audithistory/errors"
)

// DefaultDir is the scratch directory used when none is configured.
const DefaultDir = "tmp"

// MarkerFile is written into every acquired area so a later run can recognise it.
const MarkerFile = ".audithistory-scratch"

// Area is a scratch directory owned by the current run.
type Area struct {
	dir    string
	logger *zap.Logger

	once       sync.Once
	releaseErr error
}

// Acquire removes dir and everything in it, then recreates it empty.
func Acquire(dir string, logger *zap.Logger) (*Area, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clean := filepath.Clean(dir)
	if err := checkDir(dir, clean); err != nil {
		return nil, errors.NewStageError(errors.StageScratch, dir, err)
	}

	if err := os.RemoveAll(clean); err != nil {
		return nil, errors.NewStageError(errors.StageScratch, clean, fmt.Errorf("failed to clear: %w", err))
	}
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return nil, errors.NewStageError(errors.StageScratch, clean, fmt.Errorf("failed to create: %w", err))
	}
	if err := os.WriteFile(filepath.Join(clean, MarkerFile), nil, 0o644); err != nil {
		return nil, errors.NewStageError(errors.StageScratch, clean, fmt.Errorf("failed to mark: %w", err))
	}

	logger.Debug("scratch area ready", zap.String("dir", clean))
	return &Area{dir: clean, logger: logger}, nil
}

// checkDir refuses directories whose removal would take unrelated files with it
func checkDir(dir, clean string) error {
	if dir == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.NewValidationError("scratch_dir", "must be a subdirectory of the working directory or an absolute path")
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("failed to resolve: %w", err)
	}
	if abs == filepath.Dir(abs) {
		return errors.NewValidationError("scratch_dir", "refusing to use the root directory")
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if isWithin(realPath(wd), realPath(abs)) {
		return errors.NewValidationError("scratch_dir", "refusing to use the working directory or one of its parents")
	}

	entries, err := os.ReadDir(clean)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		info, statErr := os.Lstat(clean)
		if statErr == nil && !info.IsDir() {
			return errors.NewValidationError("scratch_dir", "exists and is not a directory")
		}
		return fmt.Errorf("failed to inspect: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Lstat(filepath.Join(clean, MarkerFile)); err != nil {
		return errors.NewValidationError("scratch_dir", "existing directory is not a scratch area (no "+MarkerFile+")")
	}
	return nil
}

// realPath resolves symlinks when path exists
func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// isWithin reports whether path is dir or lies below it
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Dir returns the scratch directory.
func (a *Area) Dir() string {
	return a.dir
}

// Path returns the location of a flat file name inside the area.
func (a *Area) Path(name string) string {
	return filepath.Join(a.dir, name)
}

// Release deletes the scratch directory. Only the first call does any work; later calls
// return the first result.
func (a *Area) Release() error {
	a.once.Do(func() {
		if err := os.RemoveAll(a.dir); err != nil {
			a.releaseErr = errors.NewStageError(errors.StageScratch, a.dir, fmt.Errorf("failed to remove: %w", err))
			a.logger.Warn("scratch area not removed", zap.String("dir", a.dir), zap.Error(err))
			return
		}
		a.logger.Debug("scratch area removed", zap.String("dir", a.dir))
	})
	return a.releaseErr
}
