// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP handlers for the heartvote API.

# Handler Types

  - IdentityHandler: issues voter tokens (cookie and JSON)
  - VotingHandler: casts hearts and reports vote status
  - TeamHandler: team listing and admin team management
  - ChatHandler: chat posting, listing and purging

Handlers decode requests, resolve the voter identity and origin address,
and delegate to the service package. Service errors are mapped to status
codes in one place:

	ErrValidation              400
	ErrTeamNotFound            404
	ErrDuplicateVote           409 (with voted_team when known)
	ErrVotingClosed            409
	ErrStoreUnavailable        503
	ErrTransientWriteConflict  503

# Voter Identity

The identity is read from the request body, then the X-Voter-Token header,
then the hv_voter cookie.
*/
package handlers
