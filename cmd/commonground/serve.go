package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Ryan-Har/commonground"
	"github.com/Ryan-Har/commonground/pkg/config"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API on HTTP_ADDR.

Migrations run on startup. Prometheus metrics are exposed on /metrics and a
health report on /healthz. SIGINT and SIGTERM shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	dbs, err := openDatabases(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer dbs.Close()

	mux := http.NewServeMux()
	opts := []commonground.Option{
		commonground.WithLogger(a.log),
		commonground.WithConfig(a.cfg),
		commonground.WithRouter(mux),
	}
	if dbs.pool != nil {
		opts = append(opts, commonground.WithPostgresPool(dbs.pool))
	} else {
		opts = append(opts, commonground.WithSqliteDB(dbs.sqlDB))
	}

	switch a.cfg.SessionBackend {
	case config.SessionBackendMemory:
		opts = append(opts, commonground.WithInMemorySessionStore())
	case config.SessionBackendRedis:
		client, err := openRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, commonground.WithRedisSessionStore(client))
	}

	if a.cfg.FilesDir != "" {
		if err := os.MkdirAll(a.cfg.FilesDir, 0o750); err != nil {
			return fmt.Errorf("creating file store directory: %w", err)
		}
		fs := afero.NewBasePathFs(afero.NewOsFs(), a.cfg.FilesDir)
		opts = append(opts, commonground.WithFileStore(fs, a.cfg.FilesMaxBytes))
	}

	cg, err := commonground.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer cg.Close()

	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", a.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
