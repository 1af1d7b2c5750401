package sqliteDB

import (
	"context"
)

const accountColumns = `id, display_name, email, password_hash, role, verified, banned, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (Account, error) {
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
SELECT COUNT(1) FROM accounts WHERE email = ?
`

func (q *Queries) CheckEmailExists(ctx context.Context, email string) (int64, error) {
	row := q.db.QueryRowContext(ctx, checkEmailExists, email)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, display_name, email, password_hash, role, verified)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash *string
	Role         string
	Verified     bool
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount,
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
SELECT ` + accountColumns + ` FROM accounts WHERE email = ? LIMIT 1
`

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByEmail, email))
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT ` + accountColumns + ` FROM accounts WHERE id = ? LIMIT 1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByID, id))
}

const listAccountsPaginatedWithTotal = `-- name: ListAccountsPaginatedWithTotal :many
SELECT ` + accountColumns + `, COUNT(*) OVER() AS total_count
FROM accounts
WHERE (?1 IS NULL OR role = ?1)
ORDER BY created_at ASC, id ASC
LIMIT ?2 OFFSET ?3
`

type ListAccountsPaginatedWithTotalParams struct {
	Role   *string
	Limit  int64
	Offset int64
}

type ListAccountsPaginatedWithTotalRow struct {
	Account
	TotalCount int64
}

func (q *Queries) ListAccountsPaginatedWithTotal(ctx context.Context, arg ListAccountsPaginatedWithTotalParams) ([]ListAccountsPaginatedWithTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsPaginatedWithTotal, arg.Role, arg.Limit, arg.Offset)
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
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAccounts = `-- name: CountAccounts :one
SELECT COUNT(*) FROM accounts WHERE (?1 IS NULL OR role = ?1)
`

func (q *Queries) CountAccounts(ctx context.Context, role *string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAccounts, role)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const setAccountBanned = `-- name: SetAccountBanned :one
UPDATE accounts SET banned = ?, updated_at = ? WHERE id = ?
RETURNING ` + accountColumns

type SetAccountBannedParams struct {
	Banned    bool
	UpdatedAt int64
	ID        string
}

func (q *Queries) SetAccountBanned(ctx context.Context, arg SetAccountBannedParams) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, setAccountBanned, arg.Banned, arg.UpdatedAt, arg.ID))
}

const markAccountVerified = `-- name: MarkAccountVerified :one
UPDATE accounts SET verified = 1, updated_at = ? WHERE id = ?
RETURNING ` + accountColumns

type MarkAccountVerifiedParams struct {
	UpdatedAt int64
	ID        string
}

func (q *Queries) MarkAccountVerified(ctx context.Context, arg MarkAccountVerifiedParams) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, markAccountVerified, arg.UpdatedAt, arg.ID))
}

const updateAccountRole = `-- name: UpdateAccountRole :one
UPDATE accounts SET role = ?, updated_at = ? WHERE id = ?
RETURNING ` + accountColumns

type UpdateAccountRoleParams struct {
	Role      string
	UpdatedAt int64
	ID        string
}

func (q *Queries) UpdateAccountRole(ctx context.Context, arg UpdateAccountRoleParams) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, updateAccountRole, arg.Role, arg.UpdatedAt, arg.ID))
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE id = ?
`

func (q *Queries) DeleteAccount(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
