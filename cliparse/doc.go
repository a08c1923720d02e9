// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cliparse builds the server Config from CLI flags, environment
// variables and an optional .env file, in that order of precedence.
package cliparse
