package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ryan-Har/commonground"
	"github.com/Ryan-Har/commonground/pkg/config"
	"github.com/Ryan-Har/commonground/pkg/store"
)

func newSessionsCmd(a *app) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain stored sessions",
	}

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove sessions that expired or were revoked before SESSION_RETENTION",
		Long: `Remove sessions that expired or were revoked longer ago than SESSION_RETENTION.

The server runs the same cleanup every SESSION_CLEANUP_INTERVAL; this command
is for deployments that disable the worker and schedule purges instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.purgeSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d sessions\n", n)
			return nil
		},
	})

	return sessionsCmd
}

func (a *app) purgeSessions(ctx context.Context) (int64, error) {
	if a.cfg.SessionBackend == config.SessionBackendMemory {
		return 0, errors.New("in-memory sessions live in the serving process and cannot be purged from here")
	}

	dbs, err := openDatabases(ctx, a.cfg)
	if err != nil {
		return 0, err
	}
	defer dbs.Close()

	sessionCfg := commonground.SessionConfig(a.cfg)
	sessionCfg.CleanupInterval = 0

	params := store.Params{
		SQLite:         dbs.sqlDB,
		SessionBackend: store.SessionBackend(a.cfg.SessionBackend),
		Session:        sessionCfg,
		SkipMigrations: true,
	}
	if dbs.pool != nil {
		params.SQLite, params.Postgres = nil, dbs.pool
	}
	if a.cfg.SessionBackend == config.SessionBackendRedis {
		client, err := openRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			return 0, err
		}
		defer client.Close()
		params.Redis = client
	}

	s, err := store.New(ctx, a.log, params)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	n, err := s.Sessions.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	a.log.Info("purged sessions", "count", n, "backend", a.cfg.SessionBackend)
	return n, nil
}
