// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/danielhkuo/heartvote/auth"
	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/constants"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/repository"
)

// CastVoteInput is one attempt to heart a team. OriginAddress is the raw
// network address; it is hashed before it reaches storage.
type CastVoteInput struct {
	TeamID        string
	VoterIdentity string
	OriginAddress string
	Comment       string
}

type VoteService struct {
	votes  *repository.VoteRepository
	teams  *repository.TeamRepository
	salt   string
	logger zerolog.Logger
	now    func() time.Time
}

func NewVoteService(votes *repository.VoteRepository, teams *repository.TeamRepository, cfg cliparse.Config, logger zerolog.Logger) *VoteService {
	return &VoteService{
		votes:  votes,
		teams:  teams,
		salt:   cfg.IPHashSalt,
		logger: logger,
		now:    time.Now,
	}
}

// CastVote records one heart for in.TeamID and returns the team as it stood
// right after the commit.
//
// A voter that already appears in the ledger, for any team, gets
// ErrDuplicateVote. Writes that lose a lock race are retried a few times
// before ErrTransientWriteConflict reaches the caller.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (*models.Team, error) {
	identity := strings.TrimSpace(in.VoterIdentity)
	if identity == "" {
		return nil, invalid("voter_identity is required")
	}
	if tooLong(identity, models.MaxVoterIdentity) {
		return nil, invalid("voter_identity must be at most %d characters", models.MaxVoterIdentity)
	}
	if strings.TrimSpace(in.TeamID) == "" {
		return nil, invalid("team_id is required")
	}

	var comment *string
	if text := strings.TrimSpace(in.Comment); text != "" {
		if tooLong(text, models.MaxCommentLen) {
			return nil, invalid("comment must be at most %d characters", models.MaxCommentLen)
		}
		comment = &text
	}

	origin := auth.HashIP(in.OriginAddress, s.salt)
	backoff := retry.WithMaxRetries(constants.CastVoteMaxRetries, retry.NewExponential(constants.CastVoteRetryBase))

	var hearts int
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		hearts, err = s.castOnce(ctx, in.TeamID, identity, origin, comment)
		if errors.Is(err, ErrTransientWriteConflict) {
			s.logger.Debug().Err(err).Str("team_id", in.TeamID).Msg("vote write conflict, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("team_id", in.TeamID).Int("hearts", hearts).Bool("comment", comment != nil).Msg("vote recorded")

	team, err := s.teams.Get(ctx, in.TeamID)
	if err != nil {
		return nil, storeError(err)
	}
	if team.Comments, err = s.teams.Comments(ctx, in.TeamID); err != nil {
		return nil, storeError(err)
	}
	return team, nil
}

func (s *VoteService) castOnce(ctx context.Context, teamID, identity, origin string, comment *string) (int, error) {
	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return 0, storeError(err)
	}
	if team.Status == models.StatusEnded {
		return 0, ErrVotingClosed
	}

	// Friendly early answer; the UNIQUE constraints are what actually hold.
	_, err = s.votes.LatestVotedTeam(ctx, identity, origin)
	if err == nil {
		return 0, ErrDuplicateVote
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, storeError(err)
	}

	hearts, err := s.votes.Record(ctx, models.VoteRecord{
		TeamID:        teamID,
		VoterIdentity: identity,
		OriginHash:    origin,
		Comment:       comment,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return 0, storeError(err)
	}
	return hearts, nil
}

// CheckStatus reports whether the identity or the origin has voted, and for
// which team. When the two signals point at different votes the most recent
// one wins. An empty identity matches on origin alone.
func (s *VoteService) CheckStatus(ctx context.Context, identity, originAddress string) (*models.VoteStatus, error) {
	identity = strings.TrimSpace(identity)
	if tooLong(identity, models.MaxVoterIdentity) {
		return nil, invalid("voter_identity must be at most %d characters", models.MaxVoterIdentity)
	}

	team, err := s.votes.LatestVotedTeam(ctx, identity, auth.HashIP(originAddress, s.salt))
	if errors.Is(err, repository.ErrNotFound) {
		return &models.VoteStatus{HasVoted: false}, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return &models.VoteStatus{HasVoted: true, VotedTeam: team}, nil
}
