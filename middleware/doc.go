// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

WithLogging assigns a request id (reusing X-Request-ID when present), stores
a request scoped zerolog logger in the context and logs completion with
status and duration.

# CORS

CORS wraps rs/cors. With no configured origins any origin is allowed
without credentials.

# Admin Routes

AdminOnly compares the X-Admin-Key header with the configured bcrypt hash.

# Helpers

JSONResponse, ErrorResponse, ParseJSONBody and GetClientIP.
*/
package middleware
