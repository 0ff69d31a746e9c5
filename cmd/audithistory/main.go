/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/suparena/audithistory"
	"github.com/suparena/audithistory/config"
	"github.com/suparena/audithistory/datastore"
	"github.com/suparena/audithistory/datastore/ddb"
	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/exporter"
	"github.com/suparena/audithistory/history"
	"github.com/suparena/audithistory/logging"
	"github.com/suparena/audithistory/objectstore"
	"github.com/suparena/audithistory/objectstore/s3store"
	"github.com/suparena/audithistory/query"
	"github.com/suparena/audithistory/records"
	"github.com/suparena/audithistory/storagemodels"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	msgEnd    = "--- End ---"
	msgFailed = "--- An error occurred and the export failed to complete ---"

	hintClientInit = "could not initialise the S3 client; check AWS configuration"
	hintListing    = "please make sure your AWS credentials are up to date"
)

// Constructors, replaced in tests
var (
	newLogger = logging.New

	newObjectStore = func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (objectstore.ObjectStore, error) {
		awsCfg, err := cfg.AWS.LoadAWS(ctx)
		if err != nil {
			return nil, errors.NewStageError(errors.StageClient, "", err)
		}
		return s3store.New(s3store.NewS3Client(awsCfg, cfg.AWS.Endpoint), cfg.Bucket, logger), nil
	}

	newHistoryStore = func(ctx context.Context, cfg *config.Config) (datastore.DataStore[history.ExportRun], error) {
		awsCfg, err := cfg.AWS.LoadAWS(ctx)
		if err != nil {
			return nil, err
		}
		return ddb.NewDynamodbDataStore[history.ExportRun](ddb.NewDynamoDBClient(awsCfg, cfg.History.Endpoint), cfg.History.Table)
	}
)

type cliFlags struct {
	accountID  string
	awID       string
	timestamp  string
	configPath string
	listRuns   bool
	since      string
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f cliFlags
	var o config.Config

	fs := pflag.NewFlagSet("audithistory", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.accountID, "account_id", "", "Account ID whose audit history is exported (required)")
	fs.StringVar(&f.awID, "aw_id", "", "Customer or campaign ID; exports that sub-entity only")
	fs.StringVar(&f.timestamp, "timestamp", "", "Sweep start date YYYY-MM-DD, exclusive (default 30 days ago)")
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fs.BoolVar(&f.listRuns, "list-runs", false, "List recent export runs for the account and exit")
	fs.StringVar(&f.since, "since", "", "With --list-runs, only runs generated on or after YYYY-MM-DD")
	fs.BoolVarP(&f.version, "version", "v", false, "Show version information")

	fs.StringVar(&o.Bucket, "bucket", "", "S3 bucket holding the audit records")
	fs.StringVar(&o.AWS.Region, "region", "", "AWS region")
	fs.StringVar(&o.AWS.Profile, "profile", "", "AWS shared config profile")
	fs.StringVar(&o.AWS.Endpoint, "endpoint", "", "Custom S3 endpoint URL for S3 compatible stores")
	fs.StringVar(&o.ScratchDir, "scratch-dir", "", "Temporary download directory, wiped on every run (default \"tmp\")")
	fs.StringVar(&o.OutputDir, "output-dir", "", "Directory the export is written to (default working directory)")
	fs.StringVar(&o.Format, "format", "", "Export format: csv or xlsx (default \"csv\")")
	fs.BoolVar(&o.BOM, "bom", false, "Prefix CSV output with a UTF-8 byte order mark")
	fs.BoolVar(&o.Strict, "strict", false, "Fail on records that are not valid JSON objects instead of skipping them")
	fs.Int32Var(&o.PageSize, "page-size", 0, "Keys requested per listing page (default 1000)")
	fs.StringVar(&o.History.Table, "history-table", "", "DynamoDB table recording export runs (disabled when empty)")
	fs.StringVar(&o.Logging.Level, "log-level", "", "Logging level: debug, info, warn, error (default \"info\")")
	fs.StringVar(&o.Logging.Format, "log-format", "", "Log encoding: console or json (default \"console\")")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	if f.version {
		info := audithistory.GetVersionInfo()
		fmt.Fprintf(stdout, "audithistory version %s\n", info.Version)
		fmt.Fprintf(stdout, "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(stdout, "Build date: %s\n", info.BuildDate)
		fmt.Fprintf(stdout, "Go version: %s\n", info.GoVersion)
		return exitOK
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	applyFlags(fs, cfg, &o)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if f.accountID == "" {
		fmt.Fprintln(stderr, "--account_id is required")
		fs.PrintDefaults()
		return exitUsage
	}

	logger, err := newLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer logger.Sync()

	if f.listRuns {
		return listRuns(ctx, cfg, f, logger, stdout, stderr)
	}

	target, err := buildTarget(f, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if err := export(ctx, cfg, target, logger, stdout); err != nil {
		fmt.Fprintln(stderr, err)
		switch {
		case errors.IsClientInit(err):
			fmt.Fprintln(stderr, hintClientInit)
		case errors.IsListing(err):
			fmt.Fprintln(stderr, hintListing)
		}
		fmt.Fprintln(stdout, msgFailed)
		return exitError
	}
	fmt.Fprintln(stdout, msgEnd)
	return exitOK
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(fs *pflag.FlagSet, cfg *config.Config, o *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("bucket", func() { cfg.Bucket = o.Bucket })
	set("region", func() { cfg.AWS.Region = o.AWS.Region })
	set("profile", func() { cfg.AWS.Profile = o.AWS.Profile })
	set("endpoint", func() { cfg.AWS.Endpoint = o.AWS.Endpoint })
	set("scratch-dir", func() { cfg.ScratchDir = o.ScratchDir })
	set("output-dir", func() { cfg.OutputDir = o.OutputDir })
	set("format", func() { cfg.Format = o.Format })
	set("bom", func() { cfg.BOM = o.BOM })
	set("strict", func() { cfg.Strict = o.Strict })
	set("page-size", func() { cfg.PageSize = o.PageSize })
	set("history-table", func() { cfg.History.Table = o.History.Table })
	set("log-level", func() { cfg.Logging.Level = o.Logging.Level })
	set("log-format", func() { cfg.Logging.Format = o.Logging.Format })
}

func buildTarget(f cliFlags, logger *zap.Logger) (query.Target, error) {
	if f.awID != "" {
		if f.timestamp != "" {
			logger.Warn("--timestamp is ignored when --aw_id is given")
		}
		return query.NewDirectLookup(f.accountID, f.awID), nil
	}

	var start *strfmt.Date
	if f.timestamp != "" {
		d, err := query.ParseDate(f.timestamp)
		if err != nil {
			return nil, err
		}
		start = &d
	}
	return query.NewDateSweep(f.accountID, start, time.Now()), nil
}

func export(ctx context.Context, cfg *config.Config, target query.Target, logger *zap.Logger, stdout io.Writer) error {
	store, err := newObjectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	format, err := exporter.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	exp, err := exporter.New(cfg.OutputDir, format, logger, exporter.WithBOM(cfg.BOM))
	if err != nil {
		return err
	}

	opts := []audithistory.Option{
		audithistory.WithScratchDir(cfg.ScratchDir),
		audithistory.WithParser(records.New(logger, records.WithStrict(cfg.Strict))),
		audithistory.WithListOptions(
			storagemodels.WithPageSize(cfg.PageSize),
			storagemodels.WithListProgress(func(p storagemodels.ListProgress) {
				logger.Debug("listing",
					zap.String("prefix", p.Prefix),
					zap.Int("pages", p.PagesProcessed),
					zap.Int("empty_pages", p.EmptyPages),
					zap.Int("keys", p.KeysListed),
					zap.Duration("elapsed", time.Since(p.StartTime)))
			}),
		),
		audithistory.WithDownloadProgress(func(p storagemodels.DownloadProgress) {
			fmt.Fprintf(stdout, "\rDownloaded %d of %d.", p.Completed, p.Total)
			if p.Completed == p.Total {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, "Download finished. Starting parsing data.")
			}
		}),
	}
	if cfg.HistoryEnabled() {
		ds, err := newHistoryStore(ctx, cfg)
		if err != nil {
			logger.Warn("run history disabled", zap.Error(err))
		} else {
			opts = append(opts, audithistory.WithRecorder(history.NewRecorder(ds, logger)))
		}
	}

	res, err := audithistory.New(store, exp, logger, opts...).Run(ctx, target)
	if err != nil {
		return err
	}

	if res.NoData {
		fmt.Fprintf(stdout, "No data found for account %s (%s).\n", target.Account(), target.Label())
		return nil
	}
	fmt.Fprintf(stdout, "Exported %d rows and %d columns from %d objects to %s\n",
		res.Rows, res.Columns, res.Objects, res.OutputPath)
	if res.Skipped > 0 {
		fmt.Fprintf(stdout, "Skipped %d malformed records.\n", res.Skipped)
	}
	return nil
}

func listRuns(ctx context.Context, cfg *config.Config, f cliFlags, logger *zap.Logger, stdout, stderr io.Writer) int {
	if !cfg.HistoryEnabled() {
		fmt.Fprintln(stderr, "--list-runs needs --history-table")
		return exitUsage
	}
	var since *strfmt.Date
	if f.since != "" {
		d, err := query.ParseDate(f.since)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		since = &d
	}

	ds, err := newHistoryStore(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	recorder := history.NewRecorder(ds, logger)

	var runs []history.ExportRun
	if since != nil {
		runs, err = recorder.Between(ctx, f.accountID, time.Time(*since), time.Now(), cfg.History.Limit)
	} else {
		runs, err = recorder.Recent(ctx, f.accountID, cfg.History.Limit)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	printRuns(stdout, runs)
	return exitOK
}

func printRuns(w io.Writer, runs []history.ExportRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No export runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATED AT\tRUN ID\tMODE\tTARGET\tOBJECTS\tROWS\tSTATUS\tFILE")
	for _, r := range runs {
		target := r.SubEntityID
		if target == "" {
			target = r.StartDate
		}
		generated := r.GeneratedAt
		if ts, err := r.Time(); err == nil {
			generated = ts.UTC().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			generated, r.RunID, r.Mode, target, r.ObjectCount, r.RowCount, r.Status, r.OutputFile)
	}
	tw.Flush()
}
