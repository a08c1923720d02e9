// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/handlers"
	"github.com/danielhkuo/heartvote/middleware"
)

type Params struct {
	fx.In

	Config   cliparse.Config
	Logger   zerolog.Logger
	Identity *handlers.IdentityHandler
	Voting   *handlers.VotingHandler
	Teams    *handlers.TeamHandler
	Chat     *handlers.ChatHandler
}

func NewRouter(p Params) http.Handler {
	mux := http.NewServeMux()
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.AdminOnly(p.Config.AdminKeyHash, h)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voter identity and voting (public)
	mux.HandleFunc("POST /identity", p.Identity.Issue)
	mux.HandleFunc("POST /votes", p.Voting.CastVote)
	mux.HandleFunc("POST /votes/status", p.Voting.Status)

	// Teams (public)
	mux.HandleFunc("GET /teams", p.Teams.List)
	mux.HandleFunc("GET /teams/{id}", p.Teams.Get)

	// Chat, scope is "global" or "team:<id>"
	mux.HandleFunc("GET /chat/{scope}/messages", p.Chat.List)
	mux.HandleFunc("POST /chat/{scope}/messages", p.Chat.Post)

	// Admin (requires X-Admin-Key)
	mux.HandleFunc("POST /admin/teams", admin(p.Teams.Create))
	mux.HandleFunc("POST /admin/teams/{id}/status", admin(p.Teams.SetStatus))
	mux.HandleFunc("POST /admin/teams/{id}/editing", admin(p.Teams.SetEditing))
	mux.HandleFunc("POST /admin/teams/delete-all", admin(p.Teams.DeleteAll))
	mux.HandleFunc("POST /admin/chat/{scope}/purge", admin(p.Chat.Purge))
	mux.HandleFunc("POST /admin/reset", admin(p.Teams.ResetVotes))
	mux.HandleFunc("POST /admin/reconcile", admin(p.Teams.Reconcile))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("heartvote API v1"))
	})

	return middleware.CORS(p.Config.CORSOrigins)(middleware.WithLogging(p.Logger)(mux))
}
