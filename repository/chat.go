// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/models"
)

const chatColumns = `seq, team_id, text, author_label, author_identity, origin_hash, created_at`

type ChatRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewChatRepository(sqlDB *sql.DB, logger zerolog.Logger) *ChatRepository {
	return &ChatRepository{db: sqlDB, logger: logger}
}

// Insert appends msg and fills in its sequence number.
func (r *ChatRepository) Insert(ctx context.Context, msg *models.ChatMessage) error {
	msg.CreatedAt = Timestamp(msg.CreatedAt)

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO chat_message (team_id, text, author_label, author_identity, origin_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`, nullable(msg.TeamID), msg.Text, msg.AuthorLabel, nullable(msg.AuthorIdentity),
		msg.OriginHash, msg.CreatedAt).Scan(&msg.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", db.Classify(err))
	}
	return nil
}

// Recent returns up to limit of the newest messages, newest first.
func (r *ChatRepository) Recent(ctx context.Context, scope models.ChatScope, limit int) ([]models.ChatMessage, error) {
	where, args := scopeFilter(scope)
	args = append(args, limit)

	return r.query(ctx, `
		SELECT `+chatColumns+`
		FROM chat_message
		WHERE `+where+`
		ORDER BY created_at DESC, seq DESC
		LIMIT $`+strconv.Itoa(len(args)), args...)
}

// Since returns up to limit messages strictly newer than since, oldest first.
func (r *ChatRepository) Since(ctx context.Context, scope models.ChatScope, since time.Time, limit int) ([]models.ChatMessage, error) {
	where, args := scopeFilter(scope)
	args = append(args, Timestamp(since), limit)

	return r.query(ctx, `
		SELECT `+chatColumns+`
		FROM chat_message
		WHERE `+where+` AND created_at > $`+strconv.Itoa(len(args)-1)+`
		ORDER BY created_at ASC, seq ASC
		LIMIT $`+strconv.Itoa(len(args)), args...)
}

// Purge deletes every message in scope and returns how many were removed.
func (r *ChatRepository) Purge(ctx context.Context, scope models.ChatScope) (int64, error) {
	where, args := scopeFilter(scope)

	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_message WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge chat: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge chat: %w", err)
	}
	return n, nil
}

func (r *ChatRepository) query(ctx context.Context, query string, args ...any) ([]models.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat: %w", db.Classify(err))
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		var teamID, identity sql.NullString
		err := rows.Scan(&msg.Seq, &teamID, &msg.Text, &msg.AuthorLabel, &identity, &msg.OriginHash, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		if teamID.Valid {
			msg.TeamID = &teamID.String
		}
		if identity.Valid {
			msg.AuthorIdentity = &identity.String
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat: %w", db.Classify(err))
	}

	return messages, nil
}

func scopeFilter(scope models.ChatScope) (string, []any) {
	if scope.IsGlobal() {
		return "team_id IS NULL", nil
	}
	return "team_id = $1", []any{scope.TeamID}
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
