package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/Ryan-Har/commonground/internal/db/pgDB"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type postgresSessionStore struct {
	*baseSessionStore
	queries pgDB.Queries
}

func (s *postgresSessionStore) Create(ctx context.Context, args models.CreateSessionParams) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed pg query", "method", "create session")()

	if err := s.ctxDone(ctx, "session creation"); err != nil {
		return nil, err
	}

	sesh, err := s.newSession(args)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateSession(ctx, pgDB.CreateSessionParamsFromModel(*sesh))
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, "failed to create session",
			models.NewDatabaseError(err))
	}

	s.record("created", 1)
	response := row.ToSessionModel()
	return &response, nil
}

func (s *postgresSessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed pg query", "method", "get session", "session id", redact(sessionID))()

	if err := s.ctxDone(ctx, "session get"); err != nil {
		return nil, err
	}

	row, err := s.queries.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessionNotFound(sessionID)
		}
		return nil, logutil.DebugAndWrapErr(s.log, "failed to get session",
			models.NewDatabaseError(err),
			"session id", redact(sessionID))
	}

	response := row.ToSessionModel()
	return &response, nil
}

func (s *postgresSessionStore) Revoke(ctx context.Context, sessionID string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed pg query", "method", "revoke session", "session id", redact(sessionID))()

	if err := s.ctxDone(ctx, "session revoke"); err != nil {
		return err
	}

	n, err := s.queries.RevokeSession(ctx, pgDB.RevokeSessionParams{RevokedAt: s.now().UTC(), ID: sessionID})
	if err != nil {
		return logutil.DebugAndWrapErr(s.log, "failed to revoke session",
			models.NewDatabaseError(err),
			"session id", redact(sessionID))
	}

	s.record("revoked", n)
	return nil
}

func (s *postgresSessionStore) RevokeAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed pg query", "method", "revoke account sessions", "account id", accountID)()

	if err := s.ctxDone(ctx, "session revoke"); err != nil {
		return 0, err
	}

	n, err := s.queries.RevokeSessionsByAccountID(ctx, pgDB.RevokeSessionsByAccountIDParams{
		RevokedAt: s.now().UTC(),
		AccountID: accountID,
	})
	if err != nil {
		return 0, logutil.LogAndWrapErr(s.log, "failed to revoke account sessions",
			models.NewDatabaseError(err))
	}

	s.record("revoked", n)
	return n, nil
}

func (s *postgresSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	if err := s.ctxDone(ctx, "session cleanup"); err != nil {
		return 0, err
	}

	n, err := s.queries.DeleteStaleSessions(ctx, s.purgeBefore().UTC())
	if err != nil {
		return 0, models.NewDatabaseError(err)
	}
	s.record("purged", n)
	return n, nil
}
