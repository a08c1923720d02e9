// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/testutil"
)

func TestTeamService_Create(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	team, err := s.teams.Create(ctx, models.CreateTeamRequest{
		Name:    "  Rocket ",
		Title:   "Rockets for everyone",
		Members: []string{"ana"},
	})
	require.NoError(t, err)
	assert.Len(t, team.ID, 12)
	assert.Equal(t, "Rocket", team.Name)
	assert.Equal(t, models.StatusUpcoming, team.Status)
	assert.Equal(t, []string{}, team.TechTags)

	got, err := s.teams.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team.Name, got.Name)
	assert.Equal(t, []string{"ana"}, got.Members)

	tests := []struct {
		name string
		req  models.CreateTeamRequest
	}{
		{"missing name", models.CreateTeamRequest{Title: "x"}},
		{"missing title", models.CreateTeamRequest{Name: "x"}},
		{"long name", models.CreateTeamRequest{Name: strings.Repeat("n", models.MaxTeamNameLen+1), Title: "x"}},
		{"long title", models.CreateTeamRequest{Name: "x", Title: strings.Repeat("t", models.MaxTeamTitleLen+1)}},
		{"bad status", models.CreateTeamRequest{Name: "x", Title: "x", Status: "paused"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.teams.Create(ctx, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTeamService_ListRankedWithComments(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		testutil.CreateTestTeam(t, s.conn, id)
	}

	votes := []CastVoteInput{
		{TeamID: "C", VoterIdentity: "v1", OriginAddress: "1.0.0.1", Comment: "first"},
		{TeamID: "C", VoterIdentity: "v2", OriginAddress: "1.0.0.2", Comment: "second"},
		{TeamID: "B", VoterIdentity: "v3", OriginAddress: "1.0.0.3"},
		{TeamID: "A", VoterIdentity: "v4", OriginAddress: "1.0.0.4"},
	}
	for _, in := range votes {
		_, err := s.votes.CastVote(ctx, in)
		require.NoError(t, err)
	}

	teams, err := s.teams.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 3)

	assert.Equal(t, "C", teams[0].ID)
	assert.Equal(t, 2, teams[0].Hearts)
	require.Len(t, teams[0].Comments, 2)
	assert.Equal(t, "first", teams[0].Comments[0].Text)
	assert.Equal(t, "second", teams[0].Comments[1].Text)

	// A and B tie at one heart; A was created first
	assert.Equal(t, "A", teams[1].ID)
	assert.Equal(t, "B", teams[2].ID)
	assert.NotNil(t, teams[2].Comments)
}

func TestTeamService_StatusAndEditing(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	testutil.CreateTestTeam(t, s.conn, "T1")

	require.NoError(t, s.teams.SetStatus(ctx, "T1", models.StatusEnded))
	require.NoError(t, s.teams.SetEditingAllowed(ctx, "T1", true))

	team, err := s.teams.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, team.Status)
	assert.True(t, team.EditingAllowed)

	assert.ErrorIs(t, s.teams.SetStatus(ctx, "T1", "paused"), ErrValidation)
	assert.ErrorIs(t, s.teams.SetStatus(ctx, "nope", models.StatusLive), ErrTeamNotFound)
	assert.ErrorIs(t, s.teams.SetEditingAllowed(ctx, "nope", false), ErrTeamNotFound)

	_, err = s.teams.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTeamService_ResetThenVoteAgain(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	testutil.CreateTestTeam(t, s.conn, "T1")

	in := CastVoteInput{TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1", Comment: "nice"}
	_, err := s.votes.CastVote(ctx, in)
	require.NoError(t, err)

	deleted, err := s.teams.ResetVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	status, err := s.votes.CheckStatus(ctx, "v1", "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, status.HasVoted)

	team, err := s.votes.CastVote(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, team.Hearts)
	assert.Len(t, team.Comments, 1)
}

func TestTeamService_DeleteAll(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	testutil.CreateTestTeam(t, s.conn, "T1")
	testutil.CreateTestTeam(t, s.conn, "T2")

	_, err := s.votes.CastVote(ctx, CastVoteInput{TeamID: "T1", VoterIdentity: "v1", OriginAddress: "1.1.1.1"})
	require.NoError(t, err)

	n, err := s.teams.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	teams, err := s.teams.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestTeamService_Reconcile(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	testutil.CreateTestTeam(t, s.conn, "T1")

	testutil.InsertTestVote(t, s.conn, "T1", "v1", "o1", time.Now())

	n, err := s.teams.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, testutil.Hearts(t, s.conn, "T1"))
}

func TestTeamService_RunReconciler(t *testing.T) {
	s := setup(t)
	testutil.CreateTestTeam(t, s.conn, "T1")
	testutil.InsertTestVote(t, s.conn, "T1", "v1", "o1", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.teams.RunReconciler(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.Hearts(t, s.conn, "T1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
}
