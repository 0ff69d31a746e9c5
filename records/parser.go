/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/suparena/audithistory/errors"
)

const (
	// Suffix selects which scratch files are parsed; anything else is ignored.
	Suffix = ".gz"

	defaultMaxLineSize = 32 * 1024 * 1024
	initialBufferSize  = 64 * 1024
)

// Record is one decoded JSON object. Numbers are kept as json.Number so they are exported
// exactly as written.
type Record = map[string]any

// Batch holds the records of one source file in line order.
type Batch struct {
	File    string
	Records []Record
	// Columns lists every top-level key in the file in the order it first appears
	Columns []string
	Skipped int // malformed lines dropped
}

// Parser decodes gzip-compressed newline-delimited JSON files.
type Parser struct {
	logger      *zap.Logger
	strict      bool
	maxLineSize int
}

// Option configures a Parser
type Option func(*Parser)

// WithStrict makes an undecodable line a ParseError instead of a logged, skipped line
func WithStrict(strict bool) Option {
	return func(p *Parser) {
		p.strict = strict
	}
}

// WithMaxLineSize caps the length of a single line
func WithMaxLineSize(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxLineSize = n
		}
	}
}

// New creates a Parser
func New(logger *zap.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{logger: logger, maxLineSize: defaultMaxLineSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseDir parses every *.gz file directly inside dir, one Batch per file, in file name
// order. Subdirectories and other files are skipped.
func (p *Parser) ParseDir(dir string) ([]Batch, error) {
	// os.ReadDir returns entries sorted by file name
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStageError(errors.StageParse, dir, err)
	}

	var batches []Batch
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			p.logger.Debug("ignoring scratch entry", zap.String("name", entry.Name()))
			continue
		}
		batch, err := p.ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// ParseFile decompresses and decodes a single file.
func (p *Parser) ParseFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, errors.NewStageError(errors.StageParse, path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Batch{}, errors.NewStageError(errors.StageParse, path, fmt.Errorf("gzip: %w", err))
	}
	defer gz.Close()

	batch, err := p.Parse(filepath.Base(path), gz)
	if err != nil {
		return Batch{}, err
	}

	p.logger.Debug("parsed file",
		zap.String("file", batch.File),
		zap.Int("records", len(batch.Records)),
		zap.Int("skipped", batch.Skipped))
	return batch, nil
}

// Parse decodes newline-delimited JSON from r. Blank lines, including the empty segment
// after a final newline, produce no record.
func (p *Parser) Parse(name string, r io.Reader) (Batch, error) {
	batch := Batch{File: name}
	seen := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, initialBufferSize), p.maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		rec, keys, err := decodeLine(line)
		if err != nil {
			if p.strict {
				return Batch{}, errors.NewParseError(name, lineNo, err)
			}
			batch.Skipped++
			p.logger.Warn("skipping malformed line",
				zap.String("file", name),
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		batch.Records = append(batch.Records, rec)
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				batch.Columns = append(batch.Columns, k)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Batch{}, errors.NewStageError(errors.StageParse, name, err)
	}
	return batch, nil
}

// decodeLine reads one JSON object token by token so the key order of the line is kept.
func decodeLine(line []byte) (Record, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("line is not a JSON object")
	}

	rec := make(Record)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("value of %q: %w", key, err)
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("unexpected data after JSON object")
	}
	return rec, keys, nil
}
