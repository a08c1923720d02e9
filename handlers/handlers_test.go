// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/ratelimit"
	"github.com/danielhkuo/heartvote/repository"
	"github.com/danielhkuo/heartvote/service"
	"github.com/danielhkuo/heartvote/testutil"
)

type testEnv struct {
	db       *sql.DB
	cfg      cliparse.Config
	identity *IdentityHandler
	voting   *VotingHandler
	teams    *TeamHandler
	chat     *ChatHandler
}

func setupHandlers(t *testing.T) *testEnv {
	return setupHandlersWithLimiter(t, ratelimit.Noop{})
}

func setupHandlersWithLimiter(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	log := zerolog.Nop()

	teamRepo := repository.NewTeamRepository(db, log)
	voteSvc := service.NewVoteService(repository.NewVoteRepository(db, log), teamRepo, cfg, log)
	teamSvc := service.NewTeamService(teamRepo, log)
	chatSvc := service.NewChatService(repository.NewChatRepository(db, log), teamRepo, cfg, log)

	return &testEnv{
		db:       db,
		cfg:      cfg,
		identity: NewIdentityHandler(log),
		voting:   NewVotingHandler(voteSvc, log),
		teams:    NewTeamHandler(teamSvc, log),
		chat:     NewChatHandler(chatSvc, limiter, cfg, log),
	}
}

// stubLimiter answers every Allow call the same way
type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (s *stubLimiter) Allow(context.Context, string) (bool, error) {
	s.calls++
	return s.allow, s.err
}

func (s *stubLimiter) Close() error { return nil }
