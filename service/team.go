// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/heartvote/constants"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/repository"
)

const teamIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

type TeamService struct {
	teams  *repository.TeamRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewTeamService(teams *repository.TeamRepository, logger zerolog.Logger) *TeamService {
	return &TeamService{teams: teams, logger: logger, now: time.Now}
}

func (s *TeamService) Create(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error) {
	name := strings.TrimSpace(req.Name)
	title := strings.TrimSpace(req.Title)
	switch {
	case name == "":
		return nil, invalid("name is required")
	case tooLong(name, models.MaxTeamNameLen):
		return nil, invalid("name must be at most %d characters", models.MaxTeamNameLen)
	case title == "":
		return nil, invalid("title is required")
	case tooLong(title, models.MaxTeamTitleLen):
		return nil, invalid("title must be at most %d characters", models.MaxTeamTitleLen)
	}

	status := req.Status
	if status == "" {
		status = models.StatusUpcoming
	}
	if !validStatus(status) {
		return nil, invalid("status must be upcoming, live or ended")
	}

	id, err := gonanoid.Generate(teamIDAlphabet, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate team id: %w", err)
	}

	team := &models.Team{
		ID:             id,
		Name:           name,
		Title:          title,
		Description:    req.Description,
		Problem:        req.Problem,
		Solution:       req.Solution,
		Members:        req.Members,
		TechTags:       req.TechTags,
		MediaURL:       req.MediaURL,
		EmbedURL:       req.EmbedURL,
		Status:         status,
		EditingAllowed: req.EditingAllowed,
		CreatedAt:      s.now(),
	}
	if err := s.teams.Create(ctx, team); err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to create team")
		return nil, storeError(err)
	}
	if team.Members == nil {
		team.Members = []string{}
	}
	if team.TechTags == nil {
		team.TechTags = []string{}
	}
	team.Comments = []models.Comment{}

	s.logger.Info().Str("team_id", id).Str("name", name).Msg("team created")
	return team, nil
}

// List returns every team ranked by hearts with comments attached.
func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ListTeamsConcurrency)
	for i := range teams {
		g.Go(func() error {
			comments, err := s.teams.Comments(gCtx, teams[i].ID)
			if err != nil {
				return err
			}
			teams[i].Comments = comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to load comments")
		return nil, storeError(err)
	}

	return teams, nil
}

func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teams.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if team.Comments, err = s.teams.Comments(ctx, id); err != nil {
		return nil, storeError(err)
	}
	return team, nil
}

func (s *TeamService) SetStatus(ctx context.Context, id, status string) error {
	if !validStatus(status) {
		return invalid("status must be upcoming, live or ended")
	}
	if err := s.teams.SetStatus(ctx, id, status); err != nil {
		return storeError(err)
	}
	s.logger.Info().Str("team_id", id).Str("status", status).Msg("team status changed")
	return nil
}

func (s *TeamService) SetEditingAllowed(ctx context.Context, id string, allowed bool) error {
	if err := s.teams.SetEditingAllowed(ctx, id, allowed); err != nil {
		return storeError(err)
	}
	s.logger.Info().Str("team_id", id).Bool("editing_allowed", allowed).Msg("team editing changed")
	return nil
}

func (s *TeamService) ResetVotes(ctx context.Context) (int64, error) {
	n, err := s.teams.ResetVotes(ctx)
	return n, storeError(err)
}

func (s *TeamService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.teams.DeleteAll(ctx)
	return n, storeError(err)
}

// Reconcile rewrites any tally that no longer matches its ledger count.
func (s *TeamService) Reconcile(ctx context.Context) (int64, error) {
	n, err := s.teams.Reconcile(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("tally reconcile failed")
		return 0, storeError(err)
	}
	if n > 0 {
		s.logger.Warn().Int64("teams", n).Msg("corrected drifted tallies")
	} else {
		s.logger.Debug().Msg("tallies consistent")
	}
	return n, nil
}

// RunReconciler reconciles every interval until ctx is done.
func (s *TeamService) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
			_, _ = s.Reconcile(runCtx)
			cancel()
		}
	}
}

func validStatus(status string) bool {
	switch status {
	case models.StatusUpcoming, models.StatusLive, models.StatusEnded:
		return true
	}
	return false
}
