/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package exporter

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/suparena/audithistory/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	Comma     rune
}

// CSVOption configures a CSVWriter
type CSVOption func(*WriteOptions)

// WithBOM prefixes the file with a UTF-8 byte order mark
func WithBOM(enabled bool) CSVOption {
	return func(o *WriteOptions) {
		o.BOMPrefix = enabled
	}
}

// CSVWriter writes a header line of column names followed by one line per row
type CSVWriter struct {
	options WriteOptions
}

// NewCSVWriter creates a comma separated writer without BOM unless configured otherwise
func NewCSVWriter(opts ...CSVOption) *CSVWriter {
	o := WriteOptions{Comma: ','}
	for _, opt := range opts {
		opt(&o)
	}
	return &CSVWriter{options: o}
}

// Extension returns "csv"
func (w *CSVWriter) Extension() string { return string(FormatCSV) }

// Write creates or truncates path and writes t to it
func (w *CSVWriter) Write(path string, t *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if w.options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	writer.Comma = w.options.Comma

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range t.Records() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
