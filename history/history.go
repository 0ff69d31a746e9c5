/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/audithistory/datastore"
	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/registry"
	"github.com/suparena/audithistory/storagemodels"
)

const (
	StatusSucceeded = "succeeded"
	StatusNoData    = "no_data"

	// EntityType is the EntityType attribute value of stored runs
	EntityType = "ExportRun"

	DefaultLimit int32 = 10

	sortKeyPrefix = "RUN#"
)

// ExportRun is one completed export
type ExportRun struct {
	RunID       string `dynamodbav:"RunID"`
	AccountID   string `dynamodbav:"AccountID"`
	Mode        string `dynamodbav:"Mode"`
	SubEntityID string `dynamodbav:"SubEntityID,omitempty"`
	StartDate   string `dynamodbav:"StartDate,omitempty"`
	ObjectCount int    `dynamodbav:"ObjectCount"`
	RowCount    int    `dynamodbav:"RowCount"`
	ColumnCount int    `dynamodbav:"ColumnCount"`
	OutputFile  string `dynamodbav:"OutputFile,omitempty"`
	Status      string `dynamodbav:"Status"`
	// GeneratedAt is a strfmt.DateTime rendered in UTC, so sort keys order chronologically
	GeneratedAt string `dynamodbav:"GeneratedAt"`
}

// IndexMap stores runs under their account, newest last in sort key order
var IndexMap = map[string]string{
	"PK": "ACCOUNT#{AccountID}",
	"SK": "RUN#{GeneratedAt}#{RunID}",
}

func init() {
	if err := registry.RegisterIndexMap[ExportRun](IndexMap); err != nil {
		panic(err)
	}
	if err := registry.RegisterEntityType[ExportRun](EntityType); err != nil {
		panic(err)
	}
}

// FormatTime renders t the way GeneratedAt is stored
func FormatTime(t time.Time) string {
	return strfmt.DateTime(t.UTC()).String()
}

// Time parses GeneratedAt
func (r ExportRun) Time() (time.Time, error) {
	dt, err := strfmt.ParseDateTime(r.GeneratedAt)
	if err != nil {
		return time.Time{}, err
	}
	return time.Time(dt), nil
}

// PartitionKey returns the PK runs of account are stored under
func PartitionKey(account string) string {
	return "ACCOUNT#" + account
}

// Keys derives the PK and SK of an ExportRun or *ExportRun. It matches IndexMap and backs
// in-memory stores.
func Keys(keyInput any) (string, string, error) {
	var run ExportRun
	switch v := keyInput.(type) {
	case ExportRun:
		run = v
	case *ExportRun:
		if v == nil {
			return "", "", errors.NewValidationError("keyInput", "nil run")
		}
		run = *v
	default:
		return "", "", errors.NewValidationError("keyInput", fmt.Sprintf("unsupported key type %T", keyInput))
	}
	if run.AccountID == "" || run.GeneratedAt == "" || run.RunID == "" {
		return "", "", errors.NewValidationError("keyInput", "AccountID, GeneratedAt and RunID are required")
	}
	return PartitionKey(run.AccountID), sortKeyPrefix + run.GeneratedAt + "#" + run.RunID, nil
}

// Recorder writes and reads export runs
type Recorder struct {
	store  datastore.DataStore[ExportRun]
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder backed by store
func NewRecorder(store datastore.DataStore[ExportRun], logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Record stores run, assigning a RunID and GeneratedAt when they are empty. The stored run
// is returned.
func (r *Recorder) Record(ctx context.Context, run ExportRun) (ExportRun, error) {
	if run.AccountID == "" {
		return run, errors.NewValidationError("AccountID", "account id is required")
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.GeneratedAt == "" {
		run.GeneratedAt = FormatTime(r.now())
	}
	if run.Status == "" {
		run.Status = StatusSucceeded
	}

	if err := r.store.Put(ctx, run); err != nil {
		return run, fmt.Errorf("failed to record export run: %w", err)
	}
	r.logger.Debug("recorded export run",
		zap.String("run_id", run.RunID),
		zap.String("account_id", run.AccountID),
		zap.String("status", run.Status))
	return run, nil
}

// Recent returns up to limit runs for account, newest first. A non-positive limit uses
// DefaultLimit.
func (r *Recorder) Recent(ctx context.Context, account string, limit int32) ([]ExportRun, error) {
	if account == "" {
		return nil, errors.NewValidationError("AccountID", "account id is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	runs, err := r.store.QueryPartition(ctx, &storagemodels.QueryParams{
		PartitionKey:  PartitionKey(account),
		SortKeyPrefix: sortKeyPrefix,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	return runs, nil
}

// Between returns up to limit runs for account generated in [from, to], newest first
func (r *Recorder) Between(ctx context.Context, account string, from, to time.Time, limit int32) ([]ExportRun, error) {
	if account == "" {
		return nil, errors.NewValidationError("AccountID", "account id is required")
	}
	if to.Before(from) {
		return nil, errors.NewValidationError("to", "end of range is before its start")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	runs, err := r.store.QueryPartition(ctx, &storagemodels.QueryParams{
		PartitionKey: PartitionKey(account),
		SortKeyFrom:  sortKeyPrefix + FormatTime(from),
		// '~' sorts after every run ID character
		SortKeyTo: sortKeyPrefix + FormatTime(to) + "#~",
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	return runs, nil
}

// Get fetches a single run by its key fields
func (r *Recorder) Get(ctx context.Context, account, generatedAt, runID string) (*ExportRun, error) {
	return r.store.GetOne(ctx, ExportRun{AccountID: account, GeneratedAt: generatedAt, RunID: runID})
}
