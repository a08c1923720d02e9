// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/middleware"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/service"
)

type TeamHandler struct {
	teams  *service.TeamService
	logger zerolog.Logger
}

func NewTeamHandler(teams *service.TeamService, logger zerolog.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, logger: logger}
}

// List handles GET /teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.TeamsResponse{Teams: teams})
}

// Get handles GET /teams/{id}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.teams.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, team)
}

// Create handles POST /admin/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeamRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	team, err := h.teams.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, team)
}

// SetStatus handles POST /admin/teams/{id}/status
func (h *TeamHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req models.SetStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id := r.PathValue("id")
	if err := h.teams.SetStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respondTeam(w, r, id)
}

// SetEditing handles POST /admin/teams/{id}/editing
func (h *TeamHandler) SetEditing(w http.ResponseWriter, r *http.Request) {
	var req models.SetEditingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id := r.PathValue("id")
	if err := h.teams.SetEditingAllowed(r.Context(), id, req.EditingAllowed); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respondTeam(w, r, id)
}

// ResetVotes handles POST /admin/reset
func (h *TeamHandler) ResetVotes(w http.ResponseWriter, r *http.Request) {
	h.respondCount(w, r, h.teams.ResetVotes)
}

// DeleteAll handles POST /admin/teams/delete-all
func (h *TeamHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	h.respondCount(w, r, h.teams.DeleteAll)
}

// Reconcile handles POST /admin/reconcile
func (h *TeamHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	n, err := h.teams.Reconcile(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ReconcileResponse{Corrected: n})
}

func (h *TeamHandler) respondTeam(w http.ResponseWriter, r *http.Request, id string) {
	team, err := h.teams.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, team)
}

func (h *TeamHandler) respondCount(w http.ResponseWriter, r *http.Request, op func(context.Context) (int64, error)) {
	n, err := op(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CountResponse{DeletedCount: n})
}
