// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package repository holds the SQL for teams, the vote ledger and chat logs.
// Queries use $N placeholders, which both lib/pq and modernc sqlite accept.
package repository

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type scanner interface {
	Scan(dest ...any) error
}

// Timestamp normalises t to UTC microseconds so both engines store and
// return the exact same instant.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
