// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/danielhkuo/heartvote/cliparse"
	"github.com/danielhkuo/heartvote/constants"
	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/handlers"
	"github.com/danielhkuo/heartvote/logger"
	"github.com/danielhkuo/heartvote/ratelimit"
	"github.com/danielhkuo/heartvote/repository"
	"github.com/danielhkuo/heartvote/router"
	"github.com/danielhkuo/heartvote/service"
)

func main() {
	fx.New(
		fx.NopLogger,
		fx.Provide(
			parseConfig,
			newLogger,
			db.Open,
			ratelimit.New,
			// repos
			repository.NewTeamRepository,
			repository.NewVoteRepository,
			repository.NewChatRepository,
			// svc
			service.NewVoteService,
			service.NewTeamService,
			service.NewChatService,
			// http
			handlers.NewIdentityHandler,
			handlers.NewVotingHandler,
			handlers.NewTeamHandler,
			handlers.NewChatHandler,
			router.NewRouter,
		),
		fx.Invoke(runServer),
	).Run()
}

func parseConfig() (cliparse.Config, error) {
	return cliparse.ParseFlags(os.Args[1:])
}

func newLogger(cfg cliparse.Config) zerolog.Logger {
	l := logger.New(cfg.LogLevel)
	log.Logger = l
	return l
}

func runServer(
	lc fx.Lifecycle,
	cfg cliparse.Config,
	handler http.Handler,
	conn *sql.DB,
	limiter ratelimit.Limiter,
	teams *service.TeamService,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: handler,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Repair any tally that drifted while the server was down
			if _, err := teams.Reconcile(ctx); err != nil {
				return err
			}
			if cfg.ReconcileInterval > 0 {
				go teams.RunReconciler(bgCtx, cfg.ReconcileInterval)
			}

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			stopBackground()

			shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
			defer cancel()

			err := srv.Shutdown(shutdownCtx)
			if err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
			}

			if cerr := limiter.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("error closing rate limiter")
			}
			if cerr := conn.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("error closing database connection")
			}

			if err == nil {
				logger.Info().Msg("server stopped gracefully")
			}
			return err
		},
	})
}
