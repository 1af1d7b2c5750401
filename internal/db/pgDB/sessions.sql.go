package pgDB

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = `id, account_id, expires_at, revoked, revoked_at, ip_address, user_agent, created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var i Session
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.ExpiresAt,
		&i.Revoked,
		&i.RevokedAt,
		&i.IpAddress,
		&i.UserAgent,
		&i.CreatedAt,
	)
	return i, err
}

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (id, account_id, expires_at, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	ID        string
	AccountID uuid.UUID
	ExpiresAt time.Time
	IpAddress *string
	UserAgent *string
	CreatedAt time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession,
		arg.ID,
		arg.AccountID,
		arg.ExpiresAt,
		arg.IpAddress,
		arg.UserAgent,
		arg.CreatedAt,
	)
	return scanSession(row)
}

const getSession = `-- name: GetSession :one
SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 LIMIT 1
`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, getSession, id))
}

const revokeSession = `-- name: RevokeSession :execrows
UPDATE sessions SET revoked = TRUE, revoked_at = $1 WHERE id = $2 AND revoked = FALSE
`

type RevokeSessionParams struct {
	RevokedAt time.Time
	ID        string
}

func (q *Queries) RevokeSession(ctx context.Context, arg RevokeSessionParams) (int64, error) {
	result, err := q.db.Exec(ctx, revokeSession, arg.RevokedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const revokeSessionsByAccountID = `-- name: RevokeSessionsByAccountID :execrows
UPDATE sessions SET revoked = TRUE, revoked_at = $1 WHERE account_id = $2 AND revoked = FALSE
`

type RevokeSessionsByAccountIDParams struct {
	RevokedAt time.Time
	AccountID uuid.UUID
}

func (q *Queries) RevokeSessionsByAccountID(ctx context.Context, arg RevokeSessionsByAccountIDParams) (int64, error) {
	result, err := q.db.Exec(ctx, revokeSessionsByAccountID, arg.RevokedAt, arg.AccountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteStaleSessions = `-- name: DeleteStaleSessions :execrows
DELETE FROM sessions
WHERE expires_at < $1
   OR (revoked AND revoked_at IS NOT NULL AND revoked_at < $1)
`

func (q *Queries) DeleteStaleSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.Exec(ctx, deleteStaleSessions, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
