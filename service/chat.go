// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/auth"
	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/models"
	"github.com/danielhkuo/heartvote/repository"
)

// PostMessageInput is one chat post. OriginAddress is hashed before storage.
type PostMessageInput struct {
	Scope          models.ChatScope
	Text           string
	AuthorLabel    string
	AuthorIdentity string
	OriginAddress  string
}

type ChatService struct {
	chat   *repository.ChatRepository
	teams  *repository.TeamRepository
	salt   string
	logger zerolog.Logger
	now    func() time.Time
}

func NewChatService(chat *repository.ChatRepository, teams *repository.TeamRepository, cfg cliparse.Config, logger zerolog.Logger) *ChatService {
	return &ChatService{
		chat:   chat,
		teams:  teams,
		salt:   cfg.IPHashSalt,
		logger: logger,
		now:    time.Now,
	}
}

// ParseScope accepts "global" or "team:<id>".
func ParseScope(raw string) (models.ChatScope, error) {
	if raw == models.GlobalScope {
		return models.ChatScope{}, nil
	}
	if id, ok := strings.CutPrefix(raw, models.TeamScopePrefix); ok && strings.TrimSpace(id) != "" {
		return models.ChatScope{TeamID: id}, nil
	}
	return models.ChatScope{}, invalid("scope must be %q or %q followed by a team id", models.GlobalScope, models.TeamScopePrefix)
}

func (s *ChatService) PostMessage(ctx context.Context, in PostMessageInput) (*models.ChatMessage, error) {
	text := strings.TrimSpace(in.Text)
	label := strings.TrimSpace(in.AuthorLabel)
	identity := strings.TrimSpace(in.AuthorIdentity)

	switch {
	case text == "":
		return nil, invalid("text is required")
	case tooLong(text, models.MaxChatTextLen):
		return nil, invalid("text must be at most %d characters", models.MaxChatTextLen)
	case label == "":
		return nil, invalid("author_label is required")
	case tooLong(label, models.MaxAuthorLabelLen):
		return nil, invalid("author_label must be at most %d characters", models.MaxAuthorLabelLen)
	case tooLong(identity, models.MaxVoterIdentity):
		return nil, invalid("author_identity must be at most %d characters", models.MaxVoterIdentity)
	}

	msg := &models.ChatMessage{
		Text:        text,
		AuthorLabel: label,
		OriginHash:  auth.HashIP(in.OriginAddress, s.salt),
		CreatedAt:   s.now(),
	}
	if identity != "" {
		msg.AuthorIdentity = &identity
	}

	if !in.Scope.IsGlobal() {
		exists, err := s.teams.Exists(ctx, in.Scope.TeamID)
		if err != nil {
			return nil, storeError(err)
		}
		if !exists {
			return nil, ErrTeamNotFound
		}
		teamID := in.Scope.TeamID
		msg.TeamID = &teamID
	}

	if err := s.chat.Insert(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("scope", in.Scope.String()).Msg("failed to post chat message")
		return nil, storeError(err)
	}
	msg.PostedAgo = humanize.RelTime(msg.CreatedAt, s.now(), "ago", "from now")

	s.logger.Debug().Str("scope", in.Scope.String()).Int64("seq", msg.Seq).Msg("chat message posted")
	return msg, nil
}

// ListMessages returns messages oldest first. Without since it returns the
// newest limit messages; with since only those strictly after it.
func (s *ChatService) ListMessages(ctx context.Context, scope models.ChatScope, since *time.Time, limit int) ([]models.ChatMessage, error) {
	limit = ClampLimit(limit)

	var messages []models.ChatMessage
	var err error
	if since != nil {
		messages, err = s.chat.Since(ctx, scope, *since, limit)
	} else {
		messages, err = s.chat.Recent(ctx, scope, limit)
		slices.Reverse(messages)
	}
	if err != nil {
		return nil, storeError(err)
	}

	now := s.now()
	for i := range messages {
		messages[i].PostedAgo = humanize.RelTime(messages[i].CreatedAt, now, "ago", "from now")
	}
	return messages, nil
}

func (s *ChatService) PurgeAll(ctx context.Context, scope models.ChatScope) (int64, error) {
	n, err := s.chat.Purge(ctx, scope)
	if err != nil {
		return 0, storeError(err)
	}
	s.logger.Info().Str("scope", scope.String()).Int64("deleted", n).Msg("chat purged")
	return n, nil
}

// ClampLimit applies the default page size and keeps limit within bounds.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return models.DefaultChatLimit
	case limit > models.MaxChatLimit:
		return models.MaxChatLimit
	}
	return limit
}
