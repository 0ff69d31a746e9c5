/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package exporter writes a unified table to disk as CSV or XLSX.

The CSV layout is a header line of column names followed by one line per row, comma
separated, UTF-8, with no index column. Missing and null values are empty cells.

	exp, err := exporter.New("out", exporter.FormatCSV, logger)
	path, err := exp.Export(tbl, "123", "456", time.Now())
*/
package exporter
