/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/suparena/audithistory/table"
)

// DefaultSheet is the worksheet name used for XLSX exports
const DefaultSheet = "records"

// XLSXWriter writes the table to a single worksheet, header in row 1
type XLSXWriter struct {
	sheet string
}

// NewXLSXWriter creates a writer targeting sheet, or DefaultSheet when sheet is empty
func NewXLSXWriter(sheet string) *XLSXWriter {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXWriter{sheet: sheet}
}

// Extension returns "xlsx"
func (w *XLSXWriter) Extension() string { return string(FormatXLSX) }

// Write creates or truncates path and saves t as a workbook with one sheet. Null and missing
// cells stay empty.
func (w *XLSXWriter) Write(path string, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := w.setRow(f, 1, header); err != nil {
		return err
	}

	for i := range t.Rows {
		row := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			if v, ok := t.Cell(i, col); ok {
				row[j] = v
			}
		}
		if err := w.setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) setRow(f *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
