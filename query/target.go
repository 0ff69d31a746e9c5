/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// Mode names the kind of target, used for logging and the run history.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeSweep  Mode = "sweep"
)

// DefaultSweepDays is how far back a sweep starts when no start date is given.
const DefaultSweepDays = 30

const (
	directPrefixFormat = "aw_id/account_id=%s/adwords_id=%s"
	sweepBaseFormat    = "timestamp/account_id=%s/"
	sweepDayFormat     = "date=%s/"

	// FlatSeparator replaces "/" when a full key is flattened into a local file name.
	FlatSeparator = "_"
)

// Target selects which stored objects a run exports. It is either a DirectLookup or a
// DateSweep; the unexported method keeps the set closed.
type Target interface {
	// Account returns the account identifier shared by both variants.
	Account() string
	// Mode reports which variant this is.
	Mode() Mode
	// Label is the second segment of the export file name.
	Label() string
	// Prefixes returns the key prefixes to list, in listing order.
	Prefixes(now time.Time) []string
	// LocalName maps an object key to its file name inside the scratch area.
	LocalName(key string) string

	isTarget()
}

// DirectLookup addresses a single account/sub-entity pair.
type DirectLookup struct {
	AccountID   string
	SubEntityID string
}

// NewDirectLookup returns a DirectLookup target.
func NewDirectLookup(accountID, subEntityID string) DirectLookup {
	return DirectLookup{AccountID: accountID, SubEntityID: subEntityID}
}

func (d DirectLookup) Account() string { return d.AccountID }

func (d DirectLookup) Mode() Mode { return ModeDirect }

func (d DirectLookup) Label() string { return d.SubEntityID }

// Prefix returns the single exact-match prefix for the pair.
func (d DirectLookup) Prefix() string {
	return fmt.Sprintf(directPrefixFormat, d.AccountID, d.SubEntityID)
}

func (d DirectLookup) Prefixes(time.Time) []string {
	return []string{d.Prefix()}
}

// LocalName keeps only the last path segment of the key.
func (d DirectLookup) LocalName(key string) string {
	return path.Base(key)
}

func (DirectLookup) isTarget() {}

// DateSweep lists one prefix per calendar day after StartDate up to and including today.
type DateSweep struct {
	AccountID string
	StartDate strfmt.Date
}

// NewDateSweep returns a DateSweep target. A nil start defaults to DefaultSweepDays before now.
func NewDateSweep(accountID string, start *strfmt.Date, now time.Time) DateSweep {
	if start == nil {
		def := strfmt.Date(civilDate(now.AddDate(0, 0, -DefaultSweepDays)))
		start = &def
	}
	return DateSweep{AccountID: accountID, StartDate: *start}
}

func (s DateSweep) Account() string { return s.AccountID }

func (s DateSweep) Mode() Mode { return ModeSweep }

// Label is the requested start date as YYYY-MM-DD.
func (s DateSweep) Label() string { return s.StartDate.String() }

// BasePrefix returns the account-level prefix every day prefix extends.
func (s DateSweep) BasePrefix() string {
	return fmt.Sprintf(sweepBaseFormat, s.AccountID)
}

// DayPrefix returns the prefix for a single calendar day.
func (s DateSweep) DayPrefix(day time.Time) string {
	return s.BasePrefix() + fmt.Sprintf(sweepDayFormat, day.Format(strfmt.RFC3339FullDate))
}

// Prefixes returns one prefix per day in (StartDate, today], where today is taken from now.
func (s DateSweep) Prefixes(now time.Time) []string {
	start := time.Time(s.StartDate)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())

	it := NewDayIterator(start, civilDate(now))
	prefixes := make([]string, 0, it.Remaining())
	for day, ok := it.Next(); ok; day, ok = it.Next() {
		prefixes = append(prefixes, s.DayPrefix(day))
	}
	return prefixes
}

// LocalName flattens the whole key, since every day shares the same trailing file names.
func (s DateSweep) LocalName(key string) string {
	return strings.ReplaceAll(key, "/", FlatSeparator)
}

func (DateSweep) isTarget() {}

// ParseDate parses a YYYY-MM-DD start date.
func ParseDate(value string) (strfmt.Date, error) {
	var d strfmt.Date
	if !strfmt.IsDate(value) {
		return d, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	if err := d.UnmarshalText([]byte(value)); err != nil {
		return d, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}

// civilDate truncates t to midnight in its own location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
