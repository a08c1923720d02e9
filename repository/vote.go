// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/models"
)

// VoteRepository is the vote ledger. Record is the only write path and keeps
// team.hearts in step with the ledger.
type VoteRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewVoteRepository(sqlDB *sql.DB, logger zerolog.Logger) *VoteRepository {
	return &VoteRepository{db: sqlDB, logger: logger}
}

// LatestVotedTeam returns the team of the most recent ledger entry matching
// either the origin hash or the voter identity, across all teams. Ties on
// created_at go to the later insert. An empty identity matches on origin only.
func (r *VoteRepository) LatestVotedTeam(ctx context.Context, identity, originHash string) (*models.VotedTeam, error) {
	var team models.VotedTeam
	err := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.title
		FROM vote v
		JOIN team t ON t.id = v.team_id
		WHERE v.origin_hash = $1 OR ($2 <> '' AND v.voter_identity = $2)
		ORDER BY v.created_at DESC, v.seq DESC
		LIMIT 1
	`, originHash, identity).Scan(&team.ID, &team.Name, &team.Title)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", db.Classify(err))
	}
	return &team, nil
}

// Record appends rec to the ledger, increments the team's hearts and, when
// rec carries a comment, appends it to the team's comments. All three commit
// together or not at all. It returns the new hearts value.
//
// A UNIQUE violation on (team_id, origin_hash) or (team_id, voter_identity)
// comes back wrapped in db.ErrUniqueViolation.
func (r *VoteRepository) Record(ctx context.Context, rec models.VoteRecord) (int, error) {
	rec.CreatedAt = Timestamp(rec.CreatedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", db.Classify(err))
	}
	defer tx.Rollback()

	// In-database add; the row lock (or sqlite write lock) serialises
	// concurrent increments.
	var hearts int
	err = tx.QueryRowContext(ctx, `
		UPDATE team SET hearts = hearts + 1 WHERE id = $1 RETURNING hearts
	`, rec.TeamID).Scan(&hearts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment hearts: %w", db.Classify(err))
	}

	var comment sql.NullString
	if rec.Comment != nil {
		comment = sql.NullString{String: *rec.Comment, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (team_id, voter_identity, origin_hash, comment_text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.TeamID, rec.VoterIdentity, rec.OriginHash, comment, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vote: %w", db.Classify(err))
	}

	if rec.Comment != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO team_comment (team_id, text, author_label, origin_hash, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, rec.TeamID, *rec.Comment, models.AnonymousAuthor, rec.OriginHash, rec.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to append comment: %w", db.Classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit vote: %w", db.Classify(err))
	}

	return hearts, nil
}

// CountForTeam counts ledger rows for one team.
func (r *VoteRepository) CountForTeam(ctx context.Context, teamID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE team_id = $1`, teamID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", db.Classify(err))
	}
	return n, nil
}
