// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the request, response and domain types shared by
the repository, service and handler layers.

Fields that identify a visitor (voter identity, origin hash, chat author
identity) carry json:"-" and never leave the server.
*/
package models
