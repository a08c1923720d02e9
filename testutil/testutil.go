// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/models"
)

// TestAdminKey is the admin key accepted by GetTestConfig's hash
const TestAdminKey = "test-admin-key"

var (
	adminHashOnce sync.Once
	adminHash     string
)

// SetupTestDB creates a fresh sqlite database in a temp dir with all
// migrations applied. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := GetTestConfig()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "heartvote_test.db")

	conn, err := db.Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	adminHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(TestAdminKey), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		adminHash = string(h)
	})

	return cliparse.Config{
		Port:          3318,
		DatabaseType:  cliparse.DatabaseSQLite,
		DatabaseURL:   "heartvote_test.db",
		IPHashSalt:    "test-ip-salt",
		AdminKeyHash:  adminHash,
		LogLevel:      "debug",
		ChatRateLimit: 20,
	}
}

// CreateTestTeam inserts a live team with the given external id
func CreateTestTeam(t *testing.T, conn *sql.DB, id string) string {
	t.Helper()
	return CreateTestTeamWithStatus(t, conn, id, models.StatusLive)
}

// CreateTestTeamWithStatus inserts a team with the given id and status
func CreateTestTeamWithStatus(t *testing.T, conn *sql.DB, id, status string) string {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO team (id, name, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, "Team "+id, "Project "+id, status, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		t.Fatalf("Failed to create test team: %v", err)
	}

	return id
}

// InsertTestVote writes a ledger row directly, without touching the tally
func InsertTestVote(t *testing.T, conn *sql.DB, teamID, identity, originHash string, at time.Time) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO vote (team_id, voter_identity, origin_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, teamID, identity, originHash, at.UTC().Truncate(time.Microsecond))
	if err != nil {
		t.Fatalf("Failed to insert test vote: %v", err)
	}
}

// Hearts reads a team's stored tally
func Hearts(t *testing.T, conn *sql.DB, teamID string) int {
	t.Helper()

	var hearts int
	if err := conn.QueryRow(`SELECT hearts FROM team WHERE id = $1`, teamID).Scan(&hearts); err != nil {
		t.Fatalf("Failed to read hearts: %v", err)
	}
	return hearts
}

// LedgerCount counts ledger rows for a team
func LedgerCount(t *testing.T, conn *sql.DB, teamID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE team_id = $1`, teamID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
