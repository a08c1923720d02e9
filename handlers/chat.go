// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/auth"
	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/middleware"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/ratelimit"
	"github.com/danielhkuo/heartvote/service"
)

type ChatHandler struct {
	chat    *service.ChatService
	limiter ratelimit.Limiter
	salt    string
	logger  zerolog.Logger
}

func NewChatHandler(chat *service.ChatService, limiter ratelimit.Limiter, cfg cliparse.Config, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, limiter: limiter, salt: cfg.IPHashSalt, logger: logger}
}

// List handles GET /chat/{scope}/messages?since=&limit=
// since is an RFC 3339 timestamp; messages strictly after it are returned.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := service.ParseScope(r.PathValue("scope"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	query := r.URL.Query()

	var since *time.Time
	if v := query.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	limit := 0
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	messages, err := h.chat.ListMessages(r.Context(), scope, since, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessagesResponse{Messages: messages})
}

// Post handles POST /chat/{scope}/messages
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	scope, err := service.ParseScope(r.PathValue("scope"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req models.PostMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	origin := middleware.GetClientIP(r)

	// Fail open: a broken limiter should not take chat down with it
	allowed, err := h.limiter.Allow(r.Context(), scope.String()+":"+auth.HashIP(origin, h.salt))
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
	} else if !allowed {
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "Slow down")
		return
	}

	msg, err := h.chat.PostMessage(r.Context(), service.PostMessageInput{
		Scope:          scope,
		Text:           req.Text,
		AuthorLabel:    req.AuthorLabel,
		AuthorIdentity: req.AuthorIdentity,
		OriginAddress:  origin,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, msg)
}

// Purge handles POST /admin/chat/{scope}/purge
func (h *ChatHandler) Purge(w http.ResponseWriter, r *http.Request) {
	scope, err := service.ParseScope(r.PathValue("scope"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	n, err := h.chat.PurgeAll(r.Context(), scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CountResponse{DeletedCount: n})
}
