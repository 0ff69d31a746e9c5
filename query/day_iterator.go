/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import "time"

// DayIterator walks calendar days after start up to and including end.
// Both bounds are expected at midnight in the same location.
type DayIterator struct {
	current time.Time
	end     time.Time
}

// NewDayIterator creates an iterator over (start, end]
func NewDayIterator(start, end time.Time) *DayIterator {
	return &DayIterator{
		current: start,
		end:     end,
	}
}

// Next returns the next day, or false once end has been passed
func (it *DayIterator) Next() (time.Time, bool) {
	// AddDate keeps midnight across DST changes, unlike Add(24 * time.Hour)
	next := it.current.AddDate(0, 0, 1)
	if next.After(it.end) {
		return time.Time{}, false
	}
	it.current = next
	return next, true
}

// Remaining reports how many days Next will still yield
func (it *DayIterator) Remaining() int {
	n := 0
	for d := it.current.AddDate(0, 0, 1); !d.After(it.end); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
