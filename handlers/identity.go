// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/auth"
	"github.com/danielhkuo/heartvote/middleware"
	"github.com/danielhkuo/heartvote/models"
)

const identityCookieMaxAge = 365 * 24 * 60 * 60

type IdentityHandler struct {
	logger zerolog.Logger
}

func NewIdentityHandler(logger zerolog.Logger) *IdentityHandler {
	return &IdentityHandler{logger: logger}
}

// Issue handles POST /identity. A browser that already holds a voter cookie
// gets the same token back.
func (h *IdentityHandler) Issue(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(models.VoterIdentityCookie); err == nil && validIdentity(c.Value) {
		token = c.Value
	}

	if token == "" {
		var err error
		token, err = auth.GenerateVoterToken()
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to generate voter token")
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue identity")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     models.VoterIdentityCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   identityCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.JSONResponse(w, http.StatusOK, models.IdentityResponse{VoterIdentity: token})
}

// voterIdentity picks the identity from the request body, then the
// X-Voter-Token header, then the voter cookie.
func voterIdentity(r *http.Request, fromBody string) string {
	if v := strings.TrimSpace(fromBody); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get(models.VoterIdentityHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(models.VoterIdentityCookie); err == nil {
		return c.Value
	}
	return ""
}

func validIdentity(s string) bool {
	return s != "" && len(s) <= models.MaxVoterIdentity
}
