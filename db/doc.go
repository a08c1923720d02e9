// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the SQL store and applies migrations.

# Drivers

Two drivers are supported through database/sql:

  - sqlite via modernc.org/sqlite (default, pure Go)
  - postgres via github.com/lib/pq

SQLite connections are opened with WAL journaling, a busy timeout and
immediate transactions so that concurrent vote writers queue on the write
lock instead of failing on upgrade.

# Migrations

Migrations are embedded SQL files under migrations/<dialect> and are applied
with goose on Open.

# Errors

Classify turns driver errors into ErrUniqueViolation, ErrTransient or
ErrUnavailable so callers can react without importing a driver.
*/
package db
