// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/repository"
	"github.com/danielhkuo/heartvote/testutil"
)

type services struct {
	conn  *sql.DB
	votes *VoteService
	teams *TeamService
	chat  *ChatService
}

func setup(t *testing.T) services {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	log := zerolog.Nop()

	teamRepo := repository.NewTeamRepository(conn, log)
	return services{
		conn:  conn,
		votes: NewVoteService(repository.NewVoteRepository(conn, log), teamRepo, cfg, log),
		teams: NewTeamService(teamRepo, log),
		chat:  NewChatService(repository.NewChatRepository(conn, log), teamRepo, cfg, log),
	}
}

func TestCastVote_ScenarioA(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	testutil.CreateTestTeam(t, s.conn, "T1")
	testutil.CreateTestTeam(t, s.conn, "T2")

	team, err := s.votes.CastVote(ctx, CastVoteInput{
		TeamID: "T1", VoterIdentity: "v1", OriginAddress: "10.0.0.1", Comment: "great idea",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, team.Hearts)
	require.Len(t, team.Comments, 1)
	assert.Equal(t, "great idea", team.Comments[0].Text)

	// Same identity from a different network still counts as the same voter
	_, err = s.votes.CastVote(ctx, CastVoteInput{
		TeamID: "T2", VoterIdentity: "v1", OriginAddress: "10.0.0.2",
	})
	assert.ErrorIs(t, err, ErrDuplicateVote)
	assert.Equal(t, 0, testutil.Hearts(t, s.conn, "T2"))

	status, err := s.votes.CheckStatus(ctx, "v1", "192.168.1.1")
	require.NoError(t, err)
	assert.True(t, status.HasVoted)
	require.NotNil(t, status.VotedTeam)
	assert.Equal(t, "T1", status.VotedTeam.ID)
	assert.Equal(t, "Team T1", status.VotedTeam.Name)
}

func TestCastVote_ScenarioB_SharedOrigin(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	testutil.CreateTestTeam(t, s.conn, "T1")

	var wg sync.WaitGroup
	var successes, duplicates atomic.Int32
	errs := make(chan error, 2)

	for _, identity := range []string{"alice", "bob"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.votes.CastVote(ctx, CastVoteInput{
				TeamID: "T1", VoterIdentity: identity, OriginAddress: "203.0.113.7",
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrDuplicateVote):
				duplicates.Add(1)
			default:
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(1), duplicates.Load())
	assert.Equal(t, 1, testutil.Hearts(t, s.conn, "T1"))
	assert.Equal(t, 1, testutil.LedgerCount(t, s.conn, "T1"))
}

func TestCastVote_ConcurrentDistinctVoters(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	testutil.CreateTestTeam(t, s.conn, "T1")

	const voters = 25
	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.votes.CastVote(ctx, CastVoteInput{
				TeamID:        "T1",
				VoterIdentity: fmt.Sprintf("voter-%d", i),
				OriginAddress: fmt.Sprintf("10.1.0.%d", i),
				Comment:       fmt.Sprintf("comment %d", i),
			})
			if err != nil {
				t.Errorf("voter %d: %v", i, err)
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, failures.Load())
	assert.Equal(t, voters, testutil.Hearts(t, s.conn, "T1"))
	assert.Equal(t, voters, testutil.LedgerCount(t, s.conn, "T1"))

	team, err := s.teams.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, team.Comments, voters)
}

func TestCastVote_Validation(t *testing.T) {
	s := setup(t)
	testutil.CreateTestTeam(t, s.conn, "T1")

	tests := []struct {
		name string
		in   CastVoteInput
	}{
		{"missing identity", CastVoteInput{TeamID: "T1", OriginAddress: "1.1.1.1"}},
		{"blank identity", CastVoteInput{TeamID: "T1", VoterIdentity: "   ", OriginAddress: "1.1.1.1"}},
		{"identity too long", CastVoteInput{TeamID: "T1", VoterIdentity: strings.Repeat("x", models.MaxVoterIdentity+1)}},
		{"missing team", CastVoteInput{VoterIdentity: "v1"}},
		{"comment too long", CastVoteInput{TeamID: "T1", VoterIdentity: "v1", Comment: strings.Repeat("a", models.MaxCommentLen+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.votes.CastVote(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}

	assert.Equal(t, 0, testutil.Hearts(t, s.conn, "T1"))
}

func TestCastVote_BlankCommentIsAbsent(t *testing.T) {
	s := setup(t)
	testutil.CreateTestTeam(t, s.conn, "T1")

	team, err := s.votes.CastVote(context.Background(), CastVoteInput{
		TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1", Comment: "  \n ",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, team.Hearts)
	assert.Empty(t, team.Comments)
}

func TestCastVote_TeamStates(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	testutil.CreateTestTeamWithStatus(t, s.conn, "up", models.StatusUpcoming)
	testutil.CreateTestTeamWithStatus(t, s.conn, "done", models.StatusEnded)

	_, err := s.votes.CastVote(ctx, CastVoteInput{TeamID: "missing", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	_, err = s.votes.CastVote(ctx, CastVoteInput{TeamID: "done", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	assert.ErrorIs(t, err, ErrVotingClosed)
	assert.Equal(t, 0, testutil.Hearts(t, s.conn, "done"))

	_, err = s.votes.CastVote(ctx, CastVoteInput{TeamID: "up", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	assert.NoError(t, err)
}

func TestCastVote_CancelledContextLeavesNoTrace(t *testing.T) {
	s := setup(t)
	testutil.CreateTestTeam(t, s.conn, "T1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.votes.CastVote(ctx, CastVoteInput{TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	require.Error(t, err)
	assert.Equal(t, 0, testutil.Hearts(t, s.conn, "T1"))
	assert.Equal(t, 0, testutil.LedgerCount(t, s.conn, "T1"))

	// A retry after the failure succeeds cleanly
	team, err := s.votes.CastVote(context.Background(), CastVoteInput{TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	require.NoError(t, err)
	assert.Equal(t, 1, team.Hearts)
}

func TestCheckStatus(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	testutil.CreateTestTeam(t, s.conn, "T1")
	testutil.CreateTestTeam(t, s.conn, "T2")

	status, err := s.votes.CheckStatus(ctx, "v1", "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, status.HasVoted)
	assert.Nil(t, status.VotedTeam)

	_, err = s.votes.CastVote(ctx, CastVoteInput{TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	require.NoError(t, err)

	first, err := s.votes.CheckStatus(ctx, "v1", "9.9.9.9")
	require.NoError(t, err)
	second, err := s.votes.CheckStatus(ctx, "v1", "9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, first, second, "status reads are idempotent")

	byOrigin, err := s.votes.CheckStatus(ctx, "", "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, byOrigin.HasVoted)
	assert.Equal(t, "T1", byOrigin.VotedTeam.ID)

	stranger, err := s.votes.CheckStatus(ctx, "", "8.8.8.8")
	require.NoError(t, err)
	assert.False(t, stranger.HasVoted)
}

func TestCheckStatus_DisagreeingSignalsPickMostRecent(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	testutil.CreateTestTeam(t, s.conn, "T1")
	testutil.CreateTestTeam(t, s.conn, "T2")

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.votes.now = func() time.Time { return fixed }

	_, err := s.votes.CastVote(ctx, CastVoteInput{TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	require.NoError(t, err)
	_, err = s.votes.CastVote(ctx, CastVoteInput{TeamID: "T2", VoterIdentity: "v2", OriginAddress: "2.2.2.2"})
	require.NoError(t, err)

	// identity points at T1, origin at T2, same timestamp: later insert wins
	status, err := s.votes.CheckStatus(ctx, "v1", "2.2.2.2")
	require.NoError(t, err)
	assert.Equal(t, "T2", status.VotedTeam.ID)
}

func TestHeartsMatchLedgerAfterMixedTraffic(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	for _, id := range []string{"T1", "T2", "T3"} {
		testutil.CreateTestTeam(t, s.conn, id)
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every third voter reuses an identity, so some casts must fail
			_, _ = s.votes.CastVote(ctx, CastVoteInput{
				TeamID:        fmt.Sprintf("T%d", i%3+1),
				VoterIdentity: fmt.Sprintf("v%d", i/3),
				OriginAddress: fmt.Sprintf("10.2.0.%d", i),
			})
		}()
	}
	wg.Wait()

	for _, id := range []string{"T1", "T2", "T3"} {
		assert.Equal(t, testutil.LedgerCount(t, s.conn, id), testutil.Hearts(t, s.conn, id), "team %s", id)
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"not found", repository.ErrNotFound, ErrTeamNotFound},
		{"unique", fmt.Errorf("insert: %w", db.ErrUniqueViolation), ErrDuplicateVote},
		{"busy", fmt.Errorf("insert: %w", db.ErrTransient), ErrTransientWriteConflict},
		{"down", fmt.Errorf("insert: %w", db.ErrUnavailable), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, storeError(tt.in), tt.want)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, storeError(other))
	assert.NoError(t, storeError(nil))
}
