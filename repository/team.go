// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/models"
)

const teamColumns = `id, name, title, description, problem, solution, members, tech_tags,
	media_url, embed_url, hearts, status, editing_allowed, created_at`

type TeamRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTeamRepository(sqlDB *sql.DB, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{db: sqlDB, logger: logger}
}

func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	members, err := json.Marshal(nonNil(team.Members))
	if err != nil {
		return fmt.Errorf("failed to encode members: %w", err)
	}
	tags, err := json.Marshal(nonNil(team.TechTags))
	if err != nil {
		return fmt.Errorf("failed to encode tech tags: %w", err)
	}

	team.CreatedAt = Timestamp(team.CreatedAt)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO team (`+teamColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, team.ID, team.Name, team.Title, team.Description, team.Problem, team.Solution,
		string(members), string(tags), team.MediaURL, team.EmbedURL, team.Hearts,
		team.Status, team.EditingAllowed, team.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", db.Classify(err))
	}

	return nil
}

// Get returns the team without its comments.
func (r *TeamRepository) Get(ctx context.Context, id string) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM team WHERE id = $1`, id)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", db.Classify(err))
	}
	return team, nil
}

func (r *TeamRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM team WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team: %w", db.Classify(err))
	}
	return exists, nil
}

// List returns every team ranked by hearts, ties in creation order.
func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+teamColumns+`
		FROM team
		ORDER BY hearts DESC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", db.Classify(err))
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", db.Classify(err))
	}

	return teams, nil
}

// Comments returns a team's comments in the order they were appended.
func (r *TeamRepository) Comments(ctx context.Context, teamID string) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT text, author_label, origin_hash, created_at
		FROM team_comment
		WHERE team_id = $1
		ORDER BY seq ASC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", db.Classify(err))
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var origin sql.NullString
		if err := rows.Scan(&c.Text, &c.Author, &origin, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if origin.Valid {
			c.OriginHash = &origin.String
		}
		c.CreatedAt = c.CreatedAt.UTC()
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", db.Classify(err))
	}

	return comments, nil
}

func (r *TeamRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.updateOne(ctx, `UPDATE team SET status = $1 WHERE id = $2`, status, id)
}

func (r *TeamRepository) SetEditingAllowed(ctx context.Context, id string, allowed bool) error {
	return r.updateOne(ctx, `UPDATE team SET editing_allowed = $1 WHERE id = $2`, allowed, id)
}

func (r *TeamRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetVotes clears the ledger, every comment and every chat log, and zeroes
// all tallies in one transaction. It returns the number of ledger rows removed.
func (r *TeamRepository) ResetVotes(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", db.Classify(err))
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM vote`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes: %w", db.Classify(err))
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM team_comment`,
		`DELETE FROM chat_message`,
		`UPDATE team SET hearts = 0`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to reset votes: %w", db.Classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reset: %w", db.Classify(err))
	}

	r.logger.Info().Int64("votes_deleted", deleted).Msg("votes reset")
	return deleted, nil
}

// DeleteAll removes every team together with its votes, comments and team
// chat. The global chat log is left alone.
func (r *TeamRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", db.Classify(err))
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM vote`,
		`DELETE FROM team_comment`,
		`DELETE FROM chat_message WHERE team_id IS NOT NULL`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to delete team data: %w", db.Classify(err))
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM team`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete teams: %w", db.Classify(err))
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete teams: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", db.Classify(err))
	}

	r.logger.Info().Int64("teams_deleted", deleted).Msg("teams deleted")
	return deleted, nil
}

// Reconcile re-derives every tally from the ledger and returns how many
// teams had drifted.
func (r *TeamRepository) Reconcile(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE team
		SET hearts = (SELECT COUNT(*) FROM vote WHERE vote.team_id = team.id)
		WHERE hearts <> (SELECT COUNT(*) FROM vote WHERE vote.team_id = team.id)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile tallies: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile tallies: %w", err)
	}
	return n, nil
}

func scanTeam(row scanner) (*models.Team, error) {
	var team models.Team
	var members, tags string

	err := row.Scan(
		&team.ID, &team.Name, &team.Title, &team.Description, &team.Problem,
		&team.Solution, &members, &tags, &team.MediaURL, &team.EmbedURL,
		&team.Hearts, &team.Status, &team.EditingAllowed, &team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(members), &team.Members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &team.TechTags); err != nil {
		return nil, fmt.Errorf("failed to decode tech tags: %w", err)
	}

	team.CreatedAt = team.CreatedAt.UTC()
	team.Comments = []models.Comment{}
	return &team, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
