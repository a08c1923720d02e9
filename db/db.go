// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/constants"
)

//go:embed migrations
var embedMigrations embed.FS

// Open connects to the configured database, verifies the connection and
// applies pending migrations.
func Open(cfg cliparse.Config, logger zerolog.Logger) (*sql.DB, error) {
	driver, dsn := cfg.DatabaseType, cfg.DatabaseURL
	if driver == cliparse.DatabaseSQLite {
		dsn = SQLiteDSN(dsn)
	}

	logger.Info().Str("driver", driver).Msg("connecting to database")

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == cliparse.DatabaseSQLite {
		conn.SetMaxOpenConns(constants.SQLiteMaxOpenConns)
	} else {
		conn.SetMaxOpenConns(constants.DBMaxOpenConns)
	}
	conn.SetMaxIdleConns(constants.DBMaxIdleConns)
	conn.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	conn.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.MigrationTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := Migrate(ctx, conn, driver, logger); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Msg("database ready")
	return conn, nil
}

// SQLiteDSN turns a file path into a modernc DSN with the pragmas every
// connection needs. Writers take the lock at BEGIN and wait on busy_timeout
// instead of failing mid-transaction.
func SQLiteDSN(path string) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", constants.SQLiteBusyTimeoutMS),
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=foreign_keys(1)",
		"_txlock=immediate",
		"_time_format=sqlite",
	}

	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// Migrate applies the embedded migrations for the given database type.
// Safe to call multiple times.
func Migrate(ctx context.Context, conn *sql.DB, dbType string, logger zerolog.Logger) error {
	dialect := goose.DialectSQLite3
	if dbType == cliparse.DatabasePostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(embedMigrations, "migrations/"+dbType)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, conn, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug().
			Int64("version", r.Source.Version).
			Dur("duration", r.Duration).
			Msg("migration applied")
	}
	logger.Info().Int("applied", len(results)).Msg("migrations completed")

	return nil
}
