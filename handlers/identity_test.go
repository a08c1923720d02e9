// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/testutil"
)

func TestIssueIdentity(t *testing.T) {
	handler := NewIdentityHandler(zerolog.Nop())

	req := httptest.NewRequest("POST", "/identity", nil)
	w := httptest.NewRecorder()
	handler.Issue(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.IdentityResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.VoterIdentity) != 32 {
		t.Errorf("Expected a 32 character token, got %q", resp.VoterIdentity)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != models.VoterIdentityCookie {
		t.Fatalf("Expected the %s cookie, got %+v", models.VoterIdentityCookie, cookies)
	}
	if cookies[0].Value != resp.VoterIdentity || !cookies[0].HttpOnly {
		t.Errorf("Unexpected cookie %+v", cookies[0])
	}
}

func TestIssueIdentity_ReusesCookie(t *testing.T) {
	handler := NewIdentityHandler(zerolog.Nop())

	req := httptest.NewRequest("POST", "/identity", nil)
	req.AddCookie(&http.Cookie{Name: models.VoterIdentityCookie, Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.Issue(w, req)

	var resp models.IdentityResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.VoterIdentity != "existing-token" {
		t.Errorf("Expected the cookie token to be reused, got %q", resp.VoterIdentity)
	}
}

func TestVoterIdentityPrecedence(t *testing.T) {
	req := httptest.NewRequest("POST", "/votes", nil)
	req.Header.Set(models.VoterIdentityHeader, "from-header")
	req.AddCookie(&http.Cookie{Name: models.VoterIdentityCookie, Value: "from-cookie"})

	if got := voterIdentity(req, "from-body"); got != "from-body" {
		t.Errorf("Expected body to win, got %q", got)
	}
	if got := voterIdentity(req, "  "); got != "from-header" {
		t.Errorf("Expected header next, got %q", got)
	}

	req.Header.Del(models.VoterIdentityHeader)
	if got := voterIdentity(req, ""); got != "from-cookie" {
		t.Errorf("Expected cookie last, got %q", got)
	}
}
