package pgDB

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const accountColumns = `id, display_name, email, password_hash, role, verified, banned, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.DisplayName,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.Verified,
		&i.Banned,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const checkEmailExists = `-- name: CheckEmailExists :one
SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)
`

func (q *Queries) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	row := q.db.QueryRow(ctx, checkEmailExists, email)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, display_name, email, password_hash, role, verified)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	ID           uuid.UUID
	DisplayName  string
	Email        string
	PasswordHash *string
	Role         string
	Verified     bool
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.ID,
		arg.DisplayName,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
		arg.Verified,
	)
	return scanAccount(row)
}

const getAccountByEmail = `-- name: GetAccountByEmail :one
SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 LIMIT 1
`

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccountByEmail, email))
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1
`

func (q *Queries) GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccountByID, id))
}

const listAccountsPaginatedWithTotal = `-- name: ListAccountsPaginatedWithTotal :many
SELECT ` + accountColumns + `, COUNT(*) OVER() AS total_count
FROM accounts
WHERE ($1::text IS NULL OR role = $1::text)
ORDER BY created_at ASC, id ASC
LIMIT $2 OFFSET $3
`

type ListAccountsPaginatedWithTotalParams struct {
	Role   *string
	Limit  int32
	Offset int32
}

type ListAccountsPaginatedWithTotalRow struct {
	Account
	TotalCount int64
}

func (q *Queries) ListAccountsPaginatedWithTotal(ctx context.Context, arg ListAccountsPaginatedWithTotalParams) ([]ListAccountsPaginatedWithTotalRow, error) {
	rows, err := q.db.Query(ctx, listAccountsPaginatedWithTotal, arg.Role, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListAccountsPaginatedWithTotalRow
	for rows.Next() {
		var i ListAccountsPaginatedWithTotalRow
		if err := rows.Scan(
			&i.ID,
			&i.DisplayName,
			&i.Email,
			&i.PasswordHash,
			&i.Role,
			&i.Verified,
			&i.Banned,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.TotalCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAccounts = `-- name: CountAccounts :one
SELECT COUNT(*) FROM accounts WHERE ($1::text IS NULL OR role = $1::text)
`

func (q *Queries) CountAccounts(ctx context.Context, role *string) (int64, error) {
	row := q.db.QueryRow(ctx, countAccounts, role)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const setAccountBanned = `-- name: SetAccountBanned :one
UPDATE accounts SET banned = $1, updated_at = $2 WHERE id = $3
RETURNING ` + accountColumns

type SetAccountBannedParams struct {
	Banned    bool
	UpdatedAt time.Time
	ID        uuid.UUID
}

func (q *Queries) SetAccountBanned(ctx context.Context, arg SetAccountBannedParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, setAccountBanned, arg.Banned, arg.UpdatedAt, arg.ID))
}

const markAccountVerified = `-- name: MarkAccountVerified :one
UPDATE accounts SET verified = TRUE, updated_at = $1 WHERE id = $2
RETURNING ` + accountColumns

type MarkAccountVerifiedParams struct {
	UpdatedAt time.Time
	ID        uuid.UUID
}

func (q *Queries) MarkAccountVerified(ctx context.Context, arg MarkAccountVerifiedParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, markAccountVerified, arg.UpdatedAt, arg.ID))
}

const updateAccountRole = `-- name: UpdateAccountRole :one
UPDATE accounts SET role = $1, updated_at = $2 WHERE id = $3
RETURNING ` + accountColumns

type UpdateAccountRoleParams struct {
	Role      string
	UpdatedAt time.Time
	ID        uuid.UUID
}

func (q *Queries) UpdateAccountRole(ctx context.Context, arg UpdateAccountRoleParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, updateAccountRole, arg.Role, arg.UpdatedAt, arg.ID))
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE id = $1
`

func (q *Queries) DeleteAccount(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
