// Package store wires the account, session, file and token stores to the
// backends chosen at startup and keeps the schema migrated.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/Ryan-Har/commonground/database"
	"github.com/Ryan-Har/commonground/internal/accountstore"
	"github.com/Ryan-Har/commonground/internal/filestore"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/internal/sessionstore"
	"github.com/Ryan-Har/commonground/internal/tokenstore"
)

type DBType string

const (
	DBTypeSQLite   DBType = database.DriverSqlite
	DBTypePostgres DBType = database.DriverPostgres
)

type SessionBackend string

const (
	SessionsInDatabase SessionBackend = "database"
	SessionsInMemory   SessionBackend = "memory"
	SessionsInRedis    SessionBackend = "redis"
)

// Params selects the backends. Exactly one of SQLite or Postgres must be set.
type Params struct {
	SQLite   *sql.DB
	Postgres *pgxpool.Pool

	SessionBackend SessionBackend
	Redis          redis.UniversalClient // required when SessionBackend is SessionsInRedis
	Session        sessionstore.Config

	Files  *filestore.Store       // optional
	Tokens *tokenstore.TokenStore // optional

	SkipMigrations bool
}

type Store struct {
	log      *slog.Logger
	dbType   DBType
	sqlDB    *sql.DB // migrations handle, wraps the pool for postgres
	redis    redis.UniversalClient

	Accounts accountstore.Store
	Sessions sessionstore.Store
	Files    *filestore.Store
	Tokens   *tokenstore.TokenStore
}

// New initializes the stores for p and, unless p.SkipMigrations is set,
// migrates the schema up.
//
// Example:
//
//	s, err := store.New(ctx, logger, store.Params{SQLite: db, SessionBackend: store.SessionsInMemory})
func New(ctx context.Context, log *slog.Logger, p Params) (*Store, error) {
	s := &Store{log: log, Files: p.Files, Tokens: p.Tokens, redis: p.Redis}

	switch {
	case p.SQLite != nil && p.Postgres != nil:
		return nil, errors.New("store: both sqlite and postgres configured")
	case p.SQLite != nil:
		s.dbType = DBTypeSQLite
		s.sqlDB = p.SQLite
		s.Accounts = accountstore.NewWithSqliteStore(p.SQLite, log)
	case p.Postgres != nil:
		s.dbType = DBTypePostgres
		s.sqlDB = stdlib.OpenDBFromPool(p.Postgres)
		s.Accounts = accountstore.NewWithPostgresStore(p.Postgres, log)
	default:
		return nil, errors.New("store: no database configured")
	}

	if err := s.Accounts.Ping(ctx); err != nil {
		s.Close()
		return nil, logutil.LogAndWrapErr(log, "unable to ping database", err, "dbType", s.dbType)
	}

	if !p.SkipMigrations {
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, logutil.LogAndWrapErr(log, "unable to run migrations", err)
		}
	}

	switch p.SessionBackend {
	case SessionsInMemory:
		s.Sessions = sessionstore.NewInMemory(log, p.Session)
	case SessionsInRedis:
		if p.Redis == nil {
			s.Close()
			return nil, errors.New("store: redis session backend without a redis client")
		}
		s.Sessions = sessionstore.NewRedis(log, p.Session, p.Redis)
	case SessionsInDatabase, "":
		if s.dbType == DBTypePostgres {
			s.Sessions = sessionstore.NewPostgres(log, p.Session, p.Postgres)
		} else {
			s.Sessions = sessionstore.NewSqlite(log, p.Session, p.SQLite)
		}
	default:
		s.Close()
		return nil, fmt.Errorf("store: unknown session backend %q", p.SessionBackend)
	}

	log.Debug("stores initialised", "dbType", s.dbType, "sessions", p.SessionBackend)
	return s, nil
}

func (s *Store) DBType() DBType {
	return s.dbType
}

// RunMigrations migrates the schema to the latest version.
func (s *Store) RunMigrations() error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "ran database migrations", "dbType", s.dbType)()
	return database.Migrate(s.sqlDB, string(s.dbType), database.Up)
}

// Health pings every backing service and returns one entry per service;
// a nil value means healthy.
func (s *Store) Health(ctx context.Context) map[string]error {
	checks := map[string]error{
		"database": s.Accounts.Ping(ctx),
	}
	if s.redis != nil {
		checks["redis"] = s.redis.Ping(ctx).Err()
	}
	if s.Files != nil {
		_, err := s.Files.Exists("healthcheck")
		checks["files"] = err
	}
	return checks
}

// Close stops the session cleanup worker. Database and redis handles belong
// to the caller and stay open.
func (s *Store) Close() {
	if s.Sessions != nil {
		s.Sessions.Stop()
	}
}
