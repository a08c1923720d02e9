// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package constants

import "time"

const (
	DatabaseTimeout  = 5 * time.Second
	MigrationTimeout = 30 * time.Second
	RedisTimeout     = 2 * time.Second
	ShutdownTimeout  = 5 * time.Second
)

const (
	DBMaxOpenConns       = 25
	DBMaxIdleConns       = 5
	SQLiteMaxOpenConns   = 8
	DBConnMaxLifetime    = 1 * time.Hour
	DBMaxIdleTime        = 10 * time.Minute
	SQLiteBusyTimeoutMS  = 5000
	ListTeamsConcurrency = 4
)

const (
	CastVoteMaxRetries = 3
	CastVoteRetryBase  = 25 * time.Millisecond
)

const (
	ChatRateWindow = time.Minute
)
