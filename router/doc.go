// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the heartvote API.

# Endpoints

Public:

	GET  /health
	POST /identity                  - Issue or refresh a voter token
	POST /votes                     - Cast a heart
	POST /votes/status              - Has this visitor voted, and for whom
	GET  /teams                     - Ranking with comments
	GET  /teams/{id}                - One team
	GET  /chat/{scope}/messages     - Recent messages, or ?since=
	POST /chat/{scope}/messages     - Post a message

Admin (requires X-Admin-Key):

	POST /admin/teams               - Create team
	POST /admin/teams/{id}/status   - upcoming, live or ended
	POST /admin/teams/{id}/editing  - Toggle editing
	POST /admin/teams/delete-all    - Remove every team
	POST /admin/chat/{scope}/purge  - Empty one chat scope
	POST /admin/reset               - Clear votes, comments and chat
	POST /admin/reconcile           - Repair heart counters

A scope is "global" or "team:<id>".
*/
package router
