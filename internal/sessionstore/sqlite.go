package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Ryan-Har/commonground/internal/db/sqliteDB"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
)

type sqliteSessionStore struct {
	*baseSessionStore
	db      *sql.DB
	queries sqliteDB.Queries
}

func (s *sqliteSessionStore) Create(ctx context.Context, args models.CreateSessionParams) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "create session")()

	if err := s.ctxDone(ctx, "session creation"); err != nil {
		return nil, err
	}

	sesh, err := s.newSession(args)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateSession(ctx, sqliteDB.CreateSessionParamsFromModel(*sesh))
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to create session",
			models.NewDatabaseError(err))
	}

	response, err := row.ToSessionModel()
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to create session",
			models.NewTransformationError(err.Error()))
	}

	s.record("created", 1)
	return &response, nil
}

func (s *sqliteSessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "get session", "session id", redact(sessionID))()

	if err := s.ctxDone(ctx, "session get"); err != nil {
		return nil, err
	}

	row, err := s.queries.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessionNotFound(sessionID)
		}
		return nil, logutil.DebugAndWrapErr(s.log, "failed to get session",
			models.NewDatabaseError(err),
			"session id", redact(sessionID))
	}

	response, err := row.ToSessionModel()
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to get session",
			models.NewTransformationError(err.Error()))
	}

	return &response, nil
}

func (s *sqliteSessionStore) Revoke(ctx context.Context, sessionID string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "revoke session", "session id", redact(sessionID))()

	if err := s.ctxDone(ctx, "session revoke"); err != nil {
		return err
	}

	now := s.now().Unix()
	n, err := s.queries.RevokeSession(ctx, sqliteDB.RevokeSessionParams{RevokedAt: &now, ID: sessionID})
	if err != nil {
		return logutil.DebugAndWrapErr(s.log, "failed to revoke session",
			models.NewDatabaseError(err),
			"session id", redact(sessionID))
	}

	s.record("revoked", n)
	return nil
}

func (s *sqliteSessionStore) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "revoke account sessions", "account id", accountID)()

	if err := s.ctxDone(ctx, "session revoke"); err != nil {
		return 0, err
	}

	now := s.now().Unix()
	n, err := s.queries.RevokeSessionsByAccountID(ctx, sqliteDB.RevokeSessionsByAccountIDParams{
		RevokedAt: &now,
		AccountID: accountID.String(),
	})
	if err != nil {
		return 0, logutil.LogAndWrapErr(s.log, "failed to revoke account sessions",
			models.NewDatabaseError(err))
	}

	s.record("revoked", n)
	return n, nil
}

func (s *sqliteSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	if err := s.ctxDone(ctx, "session cleanup"); err != nil {
		return 0, err
	}

	n, err := s.queries.DeleteStaleSessions(ctx, s.purgeBefore().Unix())
	if err != nil {
		return 0, models.NewDatabaseError(err)
	}
	s.record("purged", n)
	return n, nil
}
