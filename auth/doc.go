// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package auth issues voter tokens, hashes origin addresses and checks the
// admin key.
//
// Origin addresses are never stored raw. HashIP keys an HMAC-SHA256 with the
// configured salt so the same address always maps to the same hash while the
// address itself stays unrecoverable without the salt.
package auth
