/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package audithistory

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/audithistory/downloader"
	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/exporter"
	"github.com/suparena/audithistory/history"
	"github.com/suparena/audithistory/objectstore"
	"github.com/suparena/audithistory/query"
	"github.com/suparena/audithistory/records"
	"github.com/suparena/audithistory/scratch"
	"github.com/suparena/audithistory/storagemodels"
	"github.com/suparena/audithistory/table"
)

// Result describes a finished run
type Result struct {
	// NoData is set when listing found nothing; no file is written in that case
	NoData     bool
	OutputPath string
	Objects    int
	Rows       int
	Columns    int
	Skipped    int    // malformed lines dropped
	RunID      string // empty unless the run was recorded
}

// Pipeline runs one export from listing to output file
type Pipeline struct {
	store      objectstore.ObjectStore
	exporter   *exporter.Exporter
	parser     *records.Parser
	recorder   *history.Recorder
	logger     *zap.Logger
	now        func() time.Time
	scratchDir string
	listOpts   []storagemodels.ListOption
	dlOpts     []downloader.Option
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithScratchDir sets the directory wiped and used for downloads (default "tmp")
func WithScratchDir(dir string) Option {
	return func(p *Pipeline) {
		p.scratchDir = dir
	}
}

// WithParser replaces the default strict parser
func WithParser(parser *records.Parser) Option {
	return func(p *Pipeline) {
		p.parser = parser
	}
}

// WithRecorder records every completed run in the history ledger
func WithRecorder(r *history.Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithClock overrides time.Now, which decides "today" for sweeps and the file name timestamp
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithListOptions passes options through to every List call
func WithListOptions(opts ...storagemodels.ListOption) Option {
	return func(p *Pipeline) {
		p.listOpts = append(p.listOpts, opts...)
	}
}

// WithDownloadProgress is called after every completed download
func WithDownloadProgress(handler func(storagemodels.DownloadProgress)) Option {
	return func(p *Pipeline) {
		p.dlOpts = append(p.dlOpts, downloader.WithProgressHandler(handler))
	}
}

// New creates a Pipeline reading from store and writing through exp
func New(store objectstore.ObjectStore, exp *exporter.Exporter, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		store:      store,
		exporter:   exp,
		logger:     logger,
		now:        time.Now,
		scratchDir: scratch.DefaultDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.parser == nil {
		p.parser = records.New(logger)
	}
	return p
}

// Run exports every record selected by target. Either a complete file is written or an error
// is returned; the scratch area is removed on every path.
func (p *Pipeline) Run(ctx context.Context, target query.Target) (*Result, error) {
	now := p.now()
	logger := p.logger.With(
		zap.String("account_id", target.Account()),
		zap.String("mode", string(target.Mode())),
		zap.String("label", target.Label()))

	area, err := scratch.Acquire(p.scratchDir, logger)
	if err != nil {
		return nil, err
	}
	defer area.Release()

	prefixes := target.Prefixes(now)
	logger.Info("listing objects", zap.Int("prefixes", len(prefixes)))

	keys, err := objectstore.ListAll(ctx, p.store, prefixes, p.listOpts...)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		logger.Info("no data found")
		res := &Result{NoData: true}
		res.RunID = p.record(ctx, logger, target, res, history.StatusNoData, now)
		return res, nil
	}

	keys, dropped := objectstore.Dedupe(keys)
	if dropped > 0 {
		logger.Warn("dropped duplicate keys", zap.Int("dropped", dropped))
	}

	dl := downloader.New(p.store, logger, p.dlOpts...)
	if _, err := dl.DownloadAll(ctx, keys, area, target.LocalName); err != nil {
		return nil, err
	}

	batches, err := p.parser.ParseDir(area.Dir())
	if err != nil {
		return nil, err
	}
	tbl, err := table.Unify(batches)
	if err != nil {
		return nil, errors.NewStageError(errors.StageParse, area.Dir(), err)
	}

	// local copies are no longer needed once the table is in memory
	if err := area.Release(); err != nil {
		logger.Warn("continuing with scratch area left behind", zap.Error(err))
	}

	path, err := p.exporter.Export(tbl, target.Account(), target.Label(), now)
	if err != nil {
		return nil, err
	}

	res := &Result{
		OutputPath: path,
		Objects:    len(keys),
		Rows:       tbl.Len(),
		Columns:    len(tbl.Columns),
	}
	for _, b := range batches {
		res.Skipped += b.Skipped
	}
	res.RunID = p.record(ctx, logger, target, res, history.StatusSucceeded, now)
	return res, nil
}

// record writes the run to the history ledger. Failures are logged and otherwise ignored.
func (p *Pipeline) record(ctx context.Context, logger *zap.Logger, target query.Target, res *Result, status string, now time.Time) string {
	if p.recorder == nil {
		return ""
	}

	run := history.ExportRun{
		AccountID:   target.Account(),
		Mode:        string(target.Mode()),
		ObjectCount: res.Objects,
		RowCount:    res.Rows,
		ColumnCount: res.Columns,
		Status:      status,
		GeneratedAt: history.FormatTime(now),
	}
	if res.OutputPath != "" {
		run.OutputFile = filepath.Base(res.OutputPath)
	}
	switch t := target.(type) {
	case query.DirectLookup:
		run.SubEntityID = t.SubEntityID
	case query.DateSweep:
		run.StartDate = t.Label()
	}

	stored, err := p.recorder.Record(ctx, run)
	if err != nil {
		logger.Warn("export run not recorded", zap.Error(err))
		return ""
	}
	return stored.RunID
}
