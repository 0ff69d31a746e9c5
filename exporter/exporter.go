/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/table"
)

// TimestampLayout is the generation time layout used in export file names. It avoids
// characters that are not allowed in file names on common platforms.
const TimestampLayout = "2006-01-02T15-04-05"

// Format selects the output file type
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a case-insensitive format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", errors.NewValidationError("format", fmt.Sprintf("unsupported export format %q", s))
}

// Writer serializes a table to a file
type Writer interface {
	Write(path string, t *table.Table) error
	Extension() string
}

// FileName builds "{account}-{label}-{timestamp}.{ext}", where label is the sub-entity id
// or the sweep start date.
func FileName(account, label string, generatedAt time.Time, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", account, label, generatedAt.Format(TimestampLayout), ext)
}

// Exporter writes tables into an output directory
type Exporter struct {
	dir    string
	writer Writer
	logger *zap.Logger
}

// New creates an Exporter for format writing into dir. An empty dir means the working directory.
func New(dir string, format Format, logger *zap.Logger, opts ...CSVOption) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}

	var w Writer
	switch format {
	case FormatCSV, "":
		w = NewCSVWriter(opts...)
	case FormatXLSX:
		w = NewXLSXWriter(DefaultSheet)
	default:
		return nil, errors.NewValidationError("format", fmt.Sprintf("unsupported export format %q", format))
	}
	return &Exporter{dir: dir, writer: w, logger: logger}, nil
}

// Export writes t and returns the path of the new file
func (e *Exporter) Export(t *table.Table, account, label string, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", errors.NewStageError(errors.StageExport, e.dir, fmt.Errorf("failed to create output directory: %w", err))
	}

	path := filepath.Join(e.dir, FileName(account, label, generatedAt, e.writer.Extension()))
	if err := e.writer.Write(path, t); err != nil {
		_ = os.Remove(path)
		return "", errors.NewStageError(errors.StageExport, path, err)
	}

	e.logger.Info("export written",
		zap.String("path", path),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)))
	return path, nil
}
