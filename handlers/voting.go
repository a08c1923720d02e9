// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/middleware"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/service"
)

type VotingHandler struct {
	votes  *service.VoteService
	logger zerolog.Logger
}

func NewVotingHandler(votes *service.VoteService, logger zerolog.Logger) *VotingHandler {
	return &VotingHandler{votes: votes, logger: logger}
}

// CastVote handles POST /votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	identity := voterIdentity(r, req.VoterIdentity)
	origin := middleware.GetClientIP(r)

	team, err := h.votes.CastVote(r.Context(), service.CastVoteInput{
		TeamID:        req.TeamID,
		VoterIdentity: identity,
		OriginAddress: origin,
		Comment:       req.Comment,
	})
	if errors.Is(err, service.ErrDuplicateVote) {
		resp := models.DuplicateVoteResponse{
			Error:   http.StatusText(http.StatusConflict),
			Message: "Already voted",
		}
		if status, serr := h.votes.CheckStatus(r.Context(), identity, origin); serr == nil {
			resp.VotedTeam = status.VotedTeam
		}
		middleware.JSONResponse(w, http.StatusConflict, resp)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{Team: *team})
}

// Status handles POST /votes/status
func (h *VotingHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req models.VoteStatusRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	status, err := h.votes.CheckStatus(r.Context(), voterIdentity(r, req.VoterIdentity), middleware.GetClientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}
