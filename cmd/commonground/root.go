package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/config"
)

// app carries what PersistentPreRunE loaded to the subcommands.
type app struct {
	envFile string
	cfg     *config.Config
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "commonground",
		Short: "Community backend: accounts, sessions and file uploads",
		Long: `commonground serves the account, session and file API of a community site.

Settings come from the environment, optionally seeded from an env file.

Example usage:
  commonground serve                 # Serve the HTTP API
  commonground migrate up            # Apply pending schema migrations
  commonground migrate down          # Revert every migration
  commonground sessions purge        # Remove expired and revoked sessions`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "env file read before the environment")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSessionsCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(a.envFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logutil.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.cfg = cfg
	a.log = logger.With("command", cmd.Name())

	a.log.Debug("configuration loaded",
		"driver", cfg.DatabaseDriver,
		"session_backend", cfg.SessionBackend,
		"env", cfg.Env,
	)
	return nil
}
