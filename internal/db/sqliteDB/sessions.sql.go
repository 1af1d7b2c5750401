package sqliteDB

import (
	"context"
)

const sessionColumns = `id, account_id, expires_at, revoked, revoked_at, ip_address, user_agent, created_at`

func scanSession(row interface{ Scan(...interface{}) error }) (Session, error) {
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
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	ID        string
	AccountID string
	ExpiresAt int64
	IpAddress *string
	UserAgent *string
	CreatedAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, createSession,
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
SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? LIMIT 1
`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSession, id))
}

const revokeSession = `-- name: RevokeSession :execrows
UPDATE sessions SET revoked = 1, revoked_at = ? WHERE id = ? AND revoked = 0
`

type RevokeSessionParams struct {
	RevokedAt *int64
	ID        string
}

func (q *Queries) RevokeSession(ctx context.Context, arg RevokeSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, revokeSession, arg.RevokedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const revokeSessionsByAccountID = `-- name: RevokeSessionsByAccountID :execrows
UPDATE sessions SET revoked = 1, revoked_at = ? WHERE account_id = ? AND revoked = 0
`

type RevokeSessionsByAccountIDParams struct {
	RevokedAt *int64
	AccountID string
}

func (q *Queries) RevokeSessionsByAccountID(ctx context.Context, arg RevokeSessionsByAccountIDParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, revokeSessionsByAccountID, arg.RevokedAt, arg.AccountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteStaleSessions = `-- name: DeleteStaleSessions :execrows
DELETE FROM sessions
WHERE expires_at < ?1
   OR (revoked = 1 AND revoked_at IS NOT NULL AND revoked_at < ?1)
`

func (q *Queries) DeleteStaleSessions(ctx context.Context, before int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStaleSessions, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
