// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the heartvote API server.

heartvote runs the audience vote of a project showcase. Every visitor may
give one heart to one team, optionally with a comment, and can chat in a
global room or in a room per team.

# Starting the Server

	IP_HASH_SALT=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -ip-salt change-me

# Configuration

Required settings:

  - IP_HASH_SALT (-ip-salt): Secret mixed into every stored origin hash

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string or sqlite file (default: heartvote.db)
  - ADMIN_KEY_HASH (-admin-key-hash): bcrypt hash of the admin key; admin routes answer 403 without it
  - REDIS_URL (-redis): Enables the chat rate limiter
  - CHAT_RATE_LIMIT: Chat posts per origin per minute (default: 20)
  - RECONCILE_INTERVAL: Period of the heart counter reconciler, e.g. 5m (default: off)
  - CORS_ORIGINS (-cors): Comma separated allowed origins (default: any, without credentials)
  - LOG_LEVEL (-log-level): debug, info, warn, error

A .env file in the working directory is loaded first and never overrides
variables already set.

# Lifecycle

Components are wired with fx. On start the server migrates the schema,
reconciles heart counters against the vote ledger and starts listening.
On stop it drains in-flight requests within constants.ShutdownTimeout,
then closes the rate limiter and the database.
*/
package main
