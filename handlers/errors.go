// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/middleware"
	"github.com/danielhkuo/heartvote/service"
)

// writeServiceError maps service errors onto HTTP responses. ErrDuplicateVote
// is handled by the voting handler since it needs the voted team.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrTeamNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Team not found")
	case errors.Is(err, service.ErrDuplicateVote):
		middleware.ErrorResponse(w, http.StatusConflict, "Already voted")
	case errors.Is(err, service.ErrVotingClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Voting is closed for this team")
	case errors.Is(err, service.ErrTransientWriteConflict), errors.Is(err, service.ErrStoreUnavailable):
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store busy or unavailable")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Please try again")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
